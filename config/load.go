package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CCREATOR_LLM_API_KEY.
const EnvPrefix = "CCREATOR"

// DefaultPath is where the CLI looks for the config file.
const DefaultPath = "config/config.json"

// Load 按优先级加载：默认值 -> JSON 配置文件 -> 环境变量。
// A missing file at path is not an error; the defaults run the mock providers.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
		return errors.New("invalid config: llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
	}
	return nil
}

// setDefaults registers every key, which also lets AutomaticEnv see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "text")
	v.SetDefault("server.flow_timeout", "5m")
	v.SetDefault("server.session_ttl", "1h")
	v.SetDefault("server.locale", "en")

	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")

	v.SetDefault("image.provider", "mock")
	v.SetDefault("image.model", "")
	v.SetDefault("image.api_key", "")
	v.SetDefault("image.base_url", "")
	v.SetDefault("image.aspect_ratio", "")
	v.SetDefault("image.size", "")

	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_bytes", 2<<20)
	v.SetDefault("fetch.user_agent", "ccreator/1.0")
	v.SetDefault("fetch.allow_private", false)
}
