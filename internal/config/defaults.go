package config

import (
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultFallbackMessage is sent to the conversation when the completion
// provider cannot produce a reply.
const DefaultFallbackMessage = "Sorry, I can't answer that right now. Please try again later."

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            3000,
		FallbackMessage: DefaultFallbackMessage,
		LogLevel:        LogInfo,
		DatabasePath:    "data/linerelay.db",
		AllowedOrigins:  []string{"http://localhost:*", "http://127.0.0.1:*"},
		OpenAI: OpenAIConfig{
			Model:             openai.GPT3Dot5TurboInstruct,
			Timeout:           30 * time.Second,
			RequestsPerMinute: 0,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}
