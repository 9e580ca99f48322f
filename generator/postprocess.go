package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"ccreator/render"
)

var (
	fenceRe  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")
	labelRe  = regexp.MustCompile(`(?i)^(image\s+)?prompt\s*[:：]\s*`)
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseContent 校验模型输出的 JSON，并把两篇 Markdown 渲染为 HTML。
func ParseContent(raw string) (TextContent, error) {
	body := stripFence(strings.TrimSpace(raw))
	if body == "" {
		return TextContent{}, fmt.Errorf("%w: empty output", ErrInvalidResponse)
	}
	if !gjson.Valid(body) {
		// 有些模型会在 JSON 前后多说几句。
		body = objectRe.FindString(body)
		if body == "" || !gjson.Valid(body) {
			return TextContent{}, fmt.Errorf("%w: output is not a JSON object", ErrInvalidResponse)
		}
	}

	fields := gjson.GetMany(body, "blogPost", "briefingDocument", "imagePrompt")
	names := []string{"blogPost", "briefingDocument", "imagePrompt"}
	for i, f := range fields {
		if strings.TrimSpace(f.String()) == "" {
			return TextContent{}, fmt.Errorf("%w: missing %s", ErrInvalidResponse, names[i])
		}
	}

	blog, err := render.Body(fields[0].String())
	if err != nil {
		return TextContent{}, fmt.Errorf("render blog post: %w", err)
	}
	brief, err := render.Body(fields[1].String())
	if err != nil {
		return TextContent{}, fmt.Errorf("render briefing document: %w", err)
	}

	return TextContent{
		BlogPost:         blog,
		BriefingDocument: brief,
		ImagePrompt:      CleanPrompt(fields[2].String()),
	}, nil
}

// ParsePrompt extracts a single image prompt from free-form model output.
func ParsePrompt(raw string) (string, error) {
	p := CleanPrompt(stripFence(strings.TrimSpace(raw)))
	if p == "" {
		return "", fmt.Errorf("%w: empty image prompt", ErrInvalidResponse)
	}
	return p, nil
}

// CleanPrompt 去掉引号、标签和多余空白。
func CleanPrompt(s string) string {
	s = strings.TrimSpace(s)
	s = labelRe.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'“”`")
	return strings.Join(strings.Fields(s), " ")
}

func stripFence(s string) string {
	if m := fenceRe.FindStringSubmatch(s); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return s
}
