package llm

import (
	"context"
	"time"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Provider abstracts the external judge model. All provider failures look
// the same to callers: an error from Complete. The verifier maps every one
// of them onto its fallback path.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single prompt and returns the raw model output.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is the input for a judge call
type CompletionRequest struct {
	// System is the role instruction for the judge.
	System string

	// Prompt is the full verification prompt.
	Prompt string

	// Model overrides the configured model name when non-empty.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature; verification wants low values.
	Temperature float64

	// JSONMode asks the provider to constrain output to a JSON object,
	// where the API supports it.
	JSONMode bool
}

// CompletionResponse is the raw judge output
type CompletionResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// RequestsPerSecond caps the judge call rate (0 = unlimited)
	RequestsPerSecond float64
	Burst             int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30 * time.Second,
		MaxTokens: 1000,
		Burst:     5,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:          mc.Provider,
		Model:             mc.Model,
		APIKey:            mc.APIKey,
		BaseURL:           mc.BaseURL,
		Timeout:           mc.Timeout,
		MaxTokens:         mc.MaxTokens,
		RequestsPerSecond: mc.RequestsPerSecond,
		Burst:             mc.Burst,
		HTTPProxy:         mc.HTTPProxy,
		HTTPSProxy:        mc.HTTPSProxy,
		NoProxy:           mc.NoProxy,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) model(req CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.Model
}
