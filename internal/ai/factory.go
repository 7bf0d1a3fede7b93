package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// ErrGenerationDisabled is returned by the "none" provider. Every caller
// treats it like any other generation failure and uses its fallback.
var ErrGenerationDisabled = errors.New("text generation disabled")

// ProviderConfig selects and configures one generation backend.
type ProviderConfig struct {
	Provider string `yaml:"provider"`

	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	AnthropicAPIKey string `yaml:"-"`
	AnthropicModel  string `yaml:"anthropic_model"`

	GeminiAPIKey string `yaml:"-"`
	GeminiModel  string `yaml:"gemini_model"`

	Timeout time.Duration `yaml:"-"`
}

// NewGenerator builds the configured backend. An empty provider means ollama.
func NewGenerator(ctx context.Context, pc ProviderConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(pc.Provider)) {
	case "", ProviderOllama:
		return NewOllamaGenerator(pc.OllamaURL, pc.OllamaModel, pc.Timeout), nil
	case ProviderAnthropic:
		return NewAnthropicGenerator(pc.AnthropicAPIKey, pc.AnthropicModel)
	case ProviderGemini:
		return NewGeminiGenerator(ctx, pc.GeminiAPIKey, pc.GeminiModel)
	case ProviderNone:
		return GeneratorFunc(func(context.Context, string) (string, error) {
			return "", ErrGenerationDisabled
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q (want ollama, anthropic, gemini or none)", pc.Provider)
	}
}
