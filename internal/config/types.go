package config

import "time"

// LogLevel controls the minimum level emitted by the process logger.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// Config is the top-level relay configuration, corresponding to .linerelay.yml.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Port            int           `yaml:"port" koanf:"port"`
	FallbackMessage string        `yaml:"fallback_message" koanf:"fallback_message"`
	LogLevel        LogLevel      `yaml:"log_level" koanf:"log_level"`
	DatabasePath    string        `yaml:"database_path" koanf:"database_path"`
	AdminToken      string        `yaml:"admin_token,omitempty" koanf:"admin_token"`
	AllowedOrigins  []string      `yaml:"allowed_origins" koanf:"allowed_origins"`
	OpenAI          OpenAIConfig  `yaml:"openai" koanf:"openai"`
	Line            LineConfig    `yaml:"line" koanf:"line"`
	Cache           CacheConfig   `yaml:"cache" koanf:"cache"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" koanf:"shutdown_timeout"`
}

// OpenAIConfig holds completion provider settings.
type OpenAIConfig struct {
	APIKey            string        `yaml:"api_key,omitempty" koanf:"api_key"`
	Organization      string        `yaml:"organization,omitempty" koanf:"organization"`
	BaseURL           string        `yaml:"base_url,omitempty" koanf:"base_url"`
	Model             string        `yaml:"model" koanf:"model"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// LineConfig holds LINE Messaging API channel credentials.
type LineConfig struct {
	ChannelSecret string `yaml:"channel_secret,omitempty" koanf:"channel_secret"`
	ChannelToken  string `yaml:"channel_token,omitempty" koanf:"channel_token"`
	Endpoint      string `yaml:"endpoint,omitempty" koanf:"endpoint"`
}

// CacheConfig selects and tunes the reply cache. An empty RedisAddr
// selects the in-process cache.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr,omitempty" koanf:"redis_addr"`
	RedisPassword string        `yaml:"redis_password,omitempty" koanf:"redis_password"`
	RedisDB       int           `yaml:"redis_db" koanf:"redis_db"`
	TTL           time.Duration `yaml:"ttl" koanf:"ttl"`
}
