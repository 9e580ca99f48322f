// Package config loads ccreator settings from an optional JSON file, defaults
// and CCREATOR_* environment variables.
package config

import (
	"time"

	"ccreator/generator"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Image  ImageConfig  `mapstructure:"image"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
}

// ServerConfig HTTP 服务与日志配置。
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" validate:"required"`
	LogLevel    string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat   string        `mapstructure:"log_format" validate:"oneof=json text"`
	FlowTimeout time.Duration `mapstructure:"flow_timeout" validate:"gte=0"`
	SessionTTL  time.Duration `mapstructure:"session_ttl" validate:"gte=0"`
	Locale      string        `mapstructure:"locale"`
}

// LLMConfig 文本模型配置。deepseek 走 OpenAI 兼容接口，必须填写 base_url。
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=openai deepseek gemini mock"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
}

// ImageConfig 图像模型配置。api_key 为空时沿用 llm.api_key。
type ImageConfig struct {
	Provider    string `mapstructure:"provider" validate:"required,oneof=imagen openai mock"`
	Model       string `mapstructure:"model"`
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
	AspectRatio string `mapstructure:"aspect_ratio" validate:"omitempty,oneof=1:1 3:4 4:3 9:16 16:9"`
	Size        string `mapstructure:"size"`
}

// FetchConfig controls how source pages are downloaded.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBytes  int64         `mapstructure:"max_bytes" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
	// AllowPrivate lets URL input reach loopback and private networks.
	AllowPrivate bool `mapstructure:"allow_private"`
}

// LLMSettings converts the section for generator.NewLLM.
func (c LLMConfig) LLMSettings() generator.LLMSettings {
	return generator.LLMSettings{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
	}
}

// ImageSettings converts the section for generator.NewImageClient.
func (c Config) ImageSettings() generator.ImageSettings {
	key := c.Image.APIKey
	if key == "" {
		key = c.LLM.APIKey
	}
	return generator.ImageSettings{
		Provider:    c.Image.Provider,
		Model:       c.Image.Model,
		APIKey:      key,
		BaseURL:     c.Image.BaseURL,
		AspectRatio: c.Image.AspectRatio,
		Size:        c.Image.Size,
	}
}

// FetchSettings converts the section for generator.NewPageFetcher.
func (c FetchConfig) FetchSettings() generator.FetchSettings {
	return generator.FetchSettings{
		Timeout:      c.Timeout,
		MaxBytes:     c.MaxBytes,
		UserAgent:    c.UserAgent,
		AllowPrivate: c.AllowPrivate,
	}
}
