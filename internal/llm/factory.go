package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a judge provider from configuration. An empty provider
// name means the semantic judge is disabled: (nil, nil) is returned and the
// verifier degrades to rule-only checks.
func NewProvider(config Config) (Provider, error) {
	var provider Provider
	var err error

	switch strings.ToLower(config.Provider) {
	case "openai":
		provider, err = NewOpenAIProvider(config)

	case "anthropic", "claude":
		provider, err = NewAnthropicProvider(config)

	case "ollama":
		provider, err = NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.RequestsPerSecond > 0 {
		provider = NewRateLimited(provider, config.RequestsPerSecond, config.Burst)
	}

	return provider, nil
}
