package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides. A double underscore
// separates nesting levels: LINERELAY_OPENAI__MODEL -> openai.model.
const EnvPrefix = "LINERELAY_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (LINERELAY_*) and finally the
// conventional credential variables (OPENAI_API_KEY, LINE_CHANNEL_SECRET, ...).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.applyConventionalEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps LINERELAY_OPENAI__API_KEY to openai.api_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// applyConventionalEnv fills blank settings from the variable names used by
// existing deployments. Explicit config values win.
func (c *Config) applyConventionalEnv() error {
	fill := func(dst *string, name string) {
		if *dst == "" {
			*dst = os.Getenv(name)
		}
	}
	fill(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&c.OpenAI.Organization, "OPENAI_ORGANIZATION")
	fill(&c.Line.ChannelSecret, "LINE_CHANNEL_SECRET")
	fill(&c.Line.ChannelToken, "LINE_CHANNEL_ACCESS_TOKEN")

	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvPrefix+"PORT") == "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Port = p
	}
	return nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[LogLevel]bool{
	LogDebug: true,
	LogInfo:  true,
	LogWarn:  true,
	LogError: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.FallbackMessage) == "" {
		return fmt.Errorf("fallback_message is required")
	}
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}
	if c.OpenAI.Timeout < 0 {
		return fmt.Errorf("openai.timeout must be non-negative")
	}
	if c.OpenAI.RequestsPerMinute < 0 {
		return fmt.Errorf("openai.requests_per_minute must be non-negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be non-negative")
	}
	return nil
}

// ValidateCredentials checks the secrets needed to actually serve traffic.
// It is separate from Validate so that `init` can write a config without them.
func (c *Config) ValidateCredentials() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is not set (openai.api_key or OPENAI_API_KEY)")
	}
	if c.Line.ChannelToken == "" {
		return fmt.Errorf("LINE channel token is not set (line.channel_token or LINE_CHANNEL_ACCESS_TOKEN)")
	}
	return nil
}
