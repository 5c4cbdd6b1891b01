package ollama

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the transport settings for a local Ollama server.
type Config struct {
	BaseURL       string  `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	Model         string  `env:"OLLAMA_MODEL" envDefault:"deepseek-r1:14b"`
	Temperature   float64 `env:"OLLAMA_TEMPERATURE" envDefault:"0.7"`
	ContextTokens int     `env:"OLLAMA_CONTEXT_TOKENS" envDefault:"32768"`
	RepeatPenalty float64 `env:"OLLAMA_REPEAT_PENALTY" envDefault:"1.1"`
}

// ConfigFromEnv resolves the client configuration from the process
// environment, falling back to the defaults above.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse ollama config from environment: %w", err)
	}
	return cfg, nil
}
