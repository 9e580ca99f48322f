package generator

import "context"

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ImageClient 抽象图像生成模型。
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// ImageSettings configures an image backend.
type ImageSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	AspectRatio string
	Size        string
}
