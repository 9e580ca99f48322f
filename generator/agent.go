package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Fetcher turns a URL into source text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Source, error)
}

// Agent 负责把输入转成文章、简报、图片提示词和图片。
// It is the generation service consumed by the orchestrator.
type Agent struct {
	llm     LLMClient
	imager  ImageClient
	fetcher Fetcher
	logger  *slog.Logger
}

func NewAgent(llm LLMClient, imager ImageClient, fetcher Fetcher, logger *slog.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if imager == nil {
		return nil, errors.New("image client is required")
	}
	if fetcher == nil {
		fetcher = NewPageFetcher(nil, FetchSettings{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{llm: llm, imager: imager, fetcher: fetcher, logger: logger}, nil
}

// GenerateContent 根据网址或文字生成部落格文章、简报文件和图片提示词。
func (a *Agent) GenerateContent(ctx context.Context, kind InputType, value string) (TextContent, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TextContent{}, errors.New("input is empty")
	}

	var src Source
	switch kind {
	case InputURL:
		var err error
		src, err = a.fetcher.Fetch(ctx, value)
		if err != nil {
			return TextContent{}, err
		}
		a.logger.DebugContext(ctx, "fetched source page",
			"url", src.URL,
			"title", src.Title,
			"text_length", len(src.Text))
	case InputText:
		src = Source{Text: value}
	default:
		return TextContent{}, fmt.Errorf("unknown input type %q", kind)
	}

	raw, err := a.llm.Complete(ctx, BuildContentPrompt(kind, src))
	if err != nil {
		return TextContent{}, err
	}
	content, err := ParseContent(raw)
	if err != nil {
		a.logger.WarnContext(ctx, "unparseable content response", "raw_length", len(raw), "error", err)
		return TextContent{}, err
	}
	return content, nil
}

// GenerateImagePromptFromText asks the model for an image prompt describing text.
func (a *Agent) GenerateImagePromptFromText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text is empty")
	}
	raw, err := a.llm.Complete(ctx, BuildImagePromptPrompt(text))
	if err != nil {
		return "", err
	}
	return ParsePrompt(raw)
}

// GenerateImage 返回 base64 编码的图片。
func (a *Agent) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}
	img, err := a.imager.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	a.logger.DebugContext(ctx, "image generated", "bytes", len(img.Data), "mime", img.MIMEType)
	return base64.StdEncoding.EncodeToString(img.Data), nil
}
