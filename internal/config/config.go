package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	VariantForm = "form"
	VariantJSON = "json"

	InputModeQueryOrForm = "query_or_form"
	InputModeJSONBody    = "json_body"

	ResponseShapeRaw       = "raw"
	ResponseShapeFirstText = "first_text"

	ErrorClassificationFull      = "full"
	ErrorClassificationCollapsed = "collapsed"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Chat   ChatConfig   `mapstructure:"chat"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Debug          bool          `mapstructure:"debug"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LLMConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	// Timeout 为 0 时沿用客户端默认（不超时）
	Timeout       time.Duration `mapstructure:"timeout"`
	DebugRequests bool          `mapstructure:"debug_requests"`
}

// ChatConfig 描述 /chat 端点的行为。Variant 是预设，
// 其余字段非空时覆盖预设。
type ChatConfig struct {
	Variant             string `mapstructure:"variant"`
	InputMode           string `mapstructure:"input_mode"`
	ResponseShape       string `mapstructure:"response_shape"`
	ErrorClassification string `mapstructure:"error_classification"`
}

type CORSConfig struct {
	Enabled          *bool    `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// IsEnabled 未显式配置时为 false
func (c CORSConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Name        string `mapstructure:"name"`
	File        string `mapstructure:"file"`
	MaxBytes    int64  `mapstructure:"max_bytes"`
	BackupCount int    `mapstructure:"backup_count"`
}

// 各 provider 默认读取的凭证环境变量
var apiKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"ark":       "ARK_API_KEY",
	"qwen":      "DASHSCOPE_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// Load 依次读取 .env 文件、YAML 配置文件和环境变量。
// 两个文件都允许不存在。
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 没有默认值的 key 需要显式绑定，Unmarshal 才能看到环境变量
	for _, key := range []string{"llm.api_key", "llm.base_url", "chat.input_mode", "chat.response_shape", "chat.error_classification", "cors.enabled"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		if env, ok := apiKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	cfg.applyVariant()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", true)
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "claude-3-sonnet-20240229")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 0)
	v.SetDefault("llm.debug_requests", false)

	v.SetDefault("chat.variant", VariantForm)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-Id"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-Id"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.name", "chatrelay")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_bytes", 10000)
	v.SetDefault("log.backup_count", 3)
}

// applyVariant 用预设补齐未显式配置的 chat/cors 选项
func (c *Config) applyVariant() {
	var (
		inputMode      = InputModeQueryOrForm
		shape          = ResponseShapeRaw
		classification = ErrorClassificationFull
		cors           = false
	)
	if c.Chat.Variant == VariantJSON {
		inputMode = InputModeJSONBody
		shape = ResponseShapeFirstText
		classification = ErrorClassificationCollapsed
		cors = true
	}

	if c.Chat.InputMode == "" {
		c.Chat.InputMode = inputMode
	}
	if c.Chat.ResponseShape == "" {
		c.Chat.ResponseShape = shape
	}
	if c.Chat.ErrorClassification == "" {
		c.Chat.ErrorClassification = classification
	}
	if c.CORS.Enabled == nil {
		c.CORS.Enabled = &cors
	}
}

func (c *Config) Validate() error {
	if _, ok := apiKeyEnv[c.LLM.Provider]; !ok {
		return fmt.Errorf("%w: unsupported llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model is required", ErrInvalidConfig)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm.max_tokens must be positive, got %d", ErrInvalidConfig, c.LLM.MaxTokens)
	}
	switch c.Chat.Variant {
	case VariantForm, VariantJSON:
	default:
		return fmt.Errorf("%w: unknown chat.variant %q", ErrInvalidConfig, c.Chat.Variant)
	}
	switch c.Chat.InputMode {
	case InputModeQueryOrForm, InputModeJSONBody:
	default:
		return fmt.Errorf("%w: unknown chat.input_mode %q", ErrInvalidConfig, c.Chat.InputMode)
	}
	switch c.Chat.ResponseShape {
	case ResponseShapeRaw, ResponseShapeFirstText:
	default:
		return fmt.Errorf("%w: unknown chat.response_shape %q", ErrInvalidConfig, c.Chat.ResponseShape)
	}
	switch c.Chat.ErrorClassification {
	case ErrorClassificationFull, ErrorClassificationCollapsed:
	default:
		return fmt.Errorf("%w: unknown chat.error_classification %q", ErrInvalidConfig, c.Chat.ErrorClassification)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}
