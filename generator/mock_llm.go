package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	excerpt := firstLine(prompt.User)
	if !prompt.JSON {
		return "A watercolor illustration inspired by: " + excerpt, nil
	}
	// 很简单地把用户输入拼接成两篇 Markdown。
	out, err := json.Marshal(map[string]string{
		"blogPost":         "# Sample blog post\n\nGenerated from the source below.\n\n> " + excerpt,
		"briefingDocument": "## Summary\n\n" + excerpt + "\n\n## Key points\n\n- point one\n- point two",
		"imagePrompt":      "A soft watercolor cover illustration about " + excerpt,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		if r := []rune(line); len(r) > 80 {
			return string(r[:80])
		}
		return line
	}
	return "the submitted text"
}

// 1x1 white JPEG.
const mockJPEG = "/9j/4AAQSkZJRgABAQEASABIAAD/2wBDAP//////////////////////////////////////////////////////////////////////////////////////wgALCAABAAEBAREA/8QAFBABAAAAAAAAAAAAAAAAAAAAAP/aAAgBAQABPxA="

// MockImager returns a fixed tiny JPEG.
type MockImager struct{}

func (MockImager) GenerateImage(_ context.Context, _ string) (Image, error) {
	data, err := base64.StdEncoding.DecodeString(mockJPEG)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, MIMEType: "image/jpeg"}, nil
}
