package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的一轮请求：系统指令 + 用户输入。
type Prompt struct {
	System string
	User   string
	// JSON 要求模型只输出 JSON 对象（支持时由 provider 强制）。
	JSON bool
}

// maxSourceRunes bounds how much page or pasted text goes into a prompt.
const maxSourceRunes = 24000

// BuildContentPrompt 生成「部落格文章 + 简报文件 + 图片提示词」的提示词。
func BuildContentPrompt(kind InputType, src Source) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an editor who turns source material into publishable content.\n")
	sb.WriteString("Answer with a single JSON object and nothing else, using exactly these keys:\n")
	sb.WriteString(`- "blogPost": an engaging blog post in Markdown with a level-one title, 500 to 900 words.` + "\n")
	sb.WriteString(`- "briefingDocument": a concise briefing document in Markdown with headings for summary, key points and implications.` + "\n")
	sb.WriteString(`- "imagePrompt": one English sentence describing a cover image for the post, no text in the image.` + "\n")
	sb.WriteString("Write the articles in the same language as the source material.\n")

	var user strings.Builder
	switch kind {
	case InputURL:
		user.WriteString(fmt.Sprintf("Source URL: %s\n", src.URL))
		if src.Title != "" {
			user.WriteString(fmt.Sprintf("Page title: %s\n", src.Title))
		}
		user.WriteString("Page text:\n")
	default:
		user.WriteString("Source text:\n")
	}
	user.WriteString(truncateRunes(src.Text, maxSourceRunes))

	return Prompt{
		System: sb.String(),
		User:   user.String(),
		JSON:   true,
	}
}

// BuildImagePromptPrompt 根据文字生成图像提示词。
func BuildImagePromptPrompt(text string) Prompt {
	var sb strings.Builder
	sb.WriteString("You write prompts for a text-to-image model.\n")
	sb.WriteString("- Output exactly one English prompt, at most 80 words.\n")
	sb.WriteString("- Describe subject, setting, composition, lighting and style.\n")
	sb.WriteString("- No quotes, no labels, no explanations.\n")

	return Prompt{
		System: sb.String(),
		User:   "Text:\n" + truncateRunes(text, maxSourceRunes),
	}
}

func truncateRunes(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit])
}
