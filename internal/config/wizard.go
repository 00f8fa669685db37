package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard asks for the non-secret settings interactively, saves the
// result to path and returns it. Credentials stay in the environment.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Configuring the LINE completion relay.")
	fmt.Println()

	cfg := DefaultConfig()

	portPrompt := promptui.Prompt{
		Label:   "Listen port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	modelPrompt := promptui.Prompt{
		Label:   "Completion model",
		Default: cfg.OpenAI.Model,
	}
	if cfg.OpenAI.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	fallbackPrompt := promptui.Prompt{
		Label:   "Fallback reply when the provider fails",
		Default: cfg.FallbackMessage,
	}
	if cfg.FallbackMessage, err = fallbackPrompt.Run(); err != nil {
		return nil, fmt.Errorf("fallback message: %w", err)
	}

	cachePrompt := promptui.Select{
		Label: "Reply cache backend",
		Items: []string{"memory", "redis"},
	}
	_, backend, err := cachePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cache backend: %w", err)
	}
	if backend == "redis" {
		addrPrompt := promptui.Prompt{
			Label:   "Redis address",
			Default: "localhost:6379",
		}
		if cfg.Cache.RedisAddr, err = addrPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
	}

	originsPrompt := promptui.Prompt{
		Label:   "Admin API allowed origins (comma-separated)",
		Default: strings.Join(cfg.AllowedOrigins, ","),
	}
	originsStr, err := originsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("allowed origins: %w", err)
	}
	cfg.AllowedOrigins = splitAndTrim(originsStr)

	for _, envVar := range []string{"OPENAI_API_KEY", "LINE_CHANNEL_SECRET", "LINE_CHANNEL_ACCESS_TOKEN"} {
		if os.Getenv(envVar) == "" {
			fmt.Printf("Note: set %s in your environment before running linerelay server.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace,
// dropping empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
