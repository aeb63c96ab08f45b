package model

import (
	"fmt"
	"time"
)

// Config is the verification engine configuration. It is injected as a value
// at construction time; the engine reads no process-wide state.
type Config struct {
	// HallucinationThreshold: confidence below this flags a hallucination.
	HallucinationThreshold float64 `yaml:"hallucination_threshold"`

	// DefaultLevel is used when the caller passes an empty level.
	DefaultLevel Level `yaml:"default_level"`

	// BasicWeight/SemanticWeight split the comprehensive fusion.
	BasicWeight    float64 `yaml:"basic_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`

	// ClaimSupportThreshold: claims with a lower keyword coverage score
	// produce an issue.
	ClaimSupportThreshold float64 `yaml:"claim_support_threshold"`

	// NumberPenalty/EntityPenalty are subtracted once per unsupported item.
	NumberPenalty float64 `yaml:"number_penalty"`
	EntityPenalty float64 `yaml:"entity_penalty"`

	// ClaimPenaltyScale scales the per-claim penalty by how far the claim
	// fell below the support threshold.
	ClaimPenaltyScale float64 `yaml:"claim_penalty_scale"`

	// NoIssueBaseline is the confidence reported when no issues are found.
	// Rule checks are necessary but not sufficient, so it is below 1.0.
	NoIssueBaseline float64 `yaml:"no_issue_baseline"`

	// Verdict-to-confidence mapping knobs.
	UnverifiedConfidence float64 `yaml:"unverified_confidence"`
	PartialScale         float64 `yaml:"partial_scale"`
	ContradictedScale    float64 `yaml:"contradicted_scale"`

	// MaxEvidenceChunks caps how many chunks are considered, lowest
	// distance first. Zero means no cap.
	MaxEvidenceChunks int `yaml:"max_evidence_chunks"`

	Cache CacheConfig `yaml:"cache"`
	LLM   LLMConfig   `yaml:"llm"`
}

// CacheConfig controls the optional verification-result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir"` // Non-empty enables the disk layer
}

// LLMConfig configures the semantic-judge provider
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxTokens         int           `yaml:"max_tokens"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables rate limiting
	Burst             int           `yaml:"burst"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
}

// DefaultConfig returns the standard engine configuration
func DefaultConfig() Config {
	return Config{
		HallucinationThreshold: 0.7,
		DefaultLevel:           LevelComprehensive,
		BasicWeight:            0.6,
		SemanticWeight:         0.4,
		ClaimSupportThreshold:  0.5,
		NumberPenalty:          0.15,
		EntityPenalty:          0.15,
		ClaimPenaltyScale:      0.2,
		NoIssueBaseline:        0.95,
		UnverifiedConfidence:   0.4,
		PartialScale:           0.7,
		ContradictedScale:      0.3,
		MaxEvidenceChunks:      20,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled until configured
			Timeout:   30 * time.Second,
			MaxTokens: 1000,
			Burst:     5,
		},
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	if c.HallucinationThreshold <= 0 || c.HallucinationThreshold >= 1 {
		return fmt.Errorf("hallucination_threshold must be in (0,1), got %v", c.HallucinationThreshold)
	}
	if _, err := ParseLevel(string(c.DefaultLevel)); err != nil {
		return err
	}
	if c.BasicWeight < 0 || c.SemanticWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative")
	}
	if sum := c.BasicWeight + c.SemanticWeight; sum <= 0 {
		return fmt.Errorf("fusion weights must not both be zero")
	}
	if c.ClaimSupportThreshold <= 0 || c.ClaimSupportThreshold > 1 {
		return fmt.Errorf("claim_support_threshold must be in (0,1], got %v", c.ClaimSupportThreshold)
	}
	if c.MaxEvidenceChunks < 0 {
		return fmt.Errorf("max_evidence_chunks must not be negative")
	}
	return nil
}
