package generator

import (
	"context"
	"fmt"
)

// NewLLM 根据 provider 构建文本模型客户端。
func NewLLM(ctx context.Context, cfg LLMSettings) (LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAILLMFromConfig(&cfg)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: llm provider deepseek requires base_url (OpenAI-compatible endpoint)", ErrInvalidConfig)
		}
		return NewOpenAILLMFromConfig(&cfg)
	case "gemini":
		return NewGeminiLLM(ctx, &cfg)
	case "mock":
		return MockLLM{}, nil
	case "":
		return nil, fmt.Errorf("%w: llm provider missing", ErrInvalidConfig)
	default:
		return nil, fmt.Errorf("%w: llm provider %s not supported", ErrInvalidConfig, cfg.Provider)
	}
}

// NewImageClient 根据 provider 构建图像模型客户端。
func NewImageClient(ctx context.Context, cfg ImageSettings) (ImageClient, error) {
	switch cfg.Provider {
	case "imagen":
		return NewImagenClient(ctx, &cfg)
	case "openai":
		return NewOpenAIImageClientFromConfig(&cfg)
	case "mock":
		return MockImager{}, nil
	case "":
		return nil, fmt.Errorf("%w: image provider missing", ErrInvalidConfig)
	default:
		return nil, fmt.Errorf("%w: image provider %s not supported", ErrInvalidConfig, cfg.Provider)
	}
}
