package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Credentials holds provider API keys. Keys live in the environment, never in
// the config file.
type Credentials struct {
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
}

// LoadCredentials reads API keys from the environment.
func LoadCredentials(ctx context.Context) (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process(ctx, &creds); err != nil {
		return nil, fmt.Errorf("config: load credentials: %w", err)
	}
	return &creds, nil
}

// ForKind returns the API key for a provider kind, or an error naming the
// missing environment variable.
func (c *Credentials) ForKind(kind string) (string, error) {
	var key, envVar string
	switch kind {
	case "openai":
		key, envVar = c.OpenAIAPIKey, "OPENAI_API_KEY"
	case "anthropic":
		key, envVar = c.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	case "gemini":
		key, envVar = c.GeminiAPIKey, "GEMINI_API_KEY"
	default:
		return "", fmt.Errorf("config: unknown provider kind %q", kind)
	}
	if key == "" {
		return "", fmt.Errorf("config: %s is not set", envVar)
	}
	return key, nil
}
