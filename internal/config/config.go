package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Image     ImageConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Log       LogConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 配置文件路径（非配置项，由 LoadConfig 回填，用于热加载）
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port        string
	Mode        string
	WatchConfig bool `mapstructure:"watch_config"`
}

// AIConfig 上游大模型（OpenAI 兼容 chat/completions 接口）
type AIConfig struct {
	BaseURL          string  `mapstructure:"base_url"`
	APIKey           string  `mapstructure:"api_key"`
	Model            string  `mapstructure:"model"`
	ImageModel       string  `mapstructure:"image_model"`
	Temperature      float64 `mapstructure:"temperature"`
	ImageTemperature float64 `mapstructure:"image_temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
}

func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ImageConfig 图像转换推理接口
type ImageConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	Token          string `mapstructure:"token"`
	DefaultPrompt  string `mapstructure:"default_prompt"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c ImageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type CacheConfig struct {
	Driver            string `mapstructure:"driver"`
	MetricsTTLSeconds int    `mapstructure:"metrics_ttl_seconds"`
	MaxEntries        int    `mapstructure:"max_entries"`
}

func (c CacheConfig) MetricsTTL() time.Duration {
	return time.Duration(c.MetricsTTLSeconds) * time.Second
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"` // 为空时 debug 模式用 debug，其余用 info
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

var (
	ErrMissingAPIKey     = errors.New("ai.api_key is required (set MISTRAL_API_KEY)")
	ErrMissingImageToken = errors.New("image.token is required when image.enabled is true (set HUGGINGFACE_TOKEN)")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("ai.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("ai.model", "mistral-small-latest")
	v.SetDefault("ai.image_model", "mistral-large-latest")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.image_temperature", 0.8)
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.timeout_seconds", 60)

	v.SetDefault("image.enabled", false)
	v.SetDefault("image.endpoint", "https://router.huggingface.co/fal-ai/fal-ai/flux-kontext/dev?_subdomain=queue")
	v.SetDefault("image.default_prompt", "Turn the cat into a tiger.")
	v.SetDefault("image.max_upload_mb", 10)
	v.SetDefault("image.timeout_seconds", 120)

	v.SetDefault("cache.driver", CacheDriverMemory)
	v.SetDefault("cache.metrics_ttl_seconds", 300)
	v.SetDefault("cache.max_entries", 1024)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// LoadConfig 从 path 目录读取 config.yaml，环境变量优先，缺少必填项时直接返回错误
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// CREATIVE_CACHE_MAX_ENTRIES 对应 cache.max_entries
	v.SetEnvPrefix("CREATIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.base_url", "MISTRAL_API_BASE")
	v.BindEnv("ai.api_key", "MISTRAL_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Image
	v.BindEnv("image.endpoint", "IMAGE_ENDPOINT")
	v.BindEnv("image.token", "HUGGINGFACE_TOKEN")

	// Cache / Redis
	v.BindEnv("cache.driver", "CACHE_DRIVER")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.AI.BaseURL == "" {
		return errors.New("ai.base_url is required")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0, 2], got %v", c.AI.Temperature)
	}
	if c.AI.ImageTemperature < 0 || c.AI.ImageTemperature > 2 {
		return fmt.Errorf("ai.image_temperature must be within [0, 2], got %v", c.AI.ImageTemperature)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_tokens must be positive, got %d", c.AI.MaxTokens)
	}

	if c.Image.Enabled {
		if c.Image.Token == "" {
			return ErrMissingImageToken
		}
		if c.Image.Endpoint == "" {
			return errors.New("image.endpoint is required when image.enabled is true")
		}
	}

	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverRedis:
	default:
		return fmt.Errorf("unknown cache.driver %q (expected memory or redis)", c.Cache.Driver)
	}
	if c.Cache.MetricsTTLSeconds <= 0 {
		return fmt.Errorf("cache.metrics_ttl_seconds must be positive, got %d", c.Cache.MetricsTTLSeconds)
	}

	return nil
}
