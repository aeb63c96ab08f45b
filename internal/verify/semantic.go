package verify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mudler/xlog"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

// SemanticVerifier escalates verification to the external LLM judge. Every
// failure mode (disabled, network, timeout, malformed output) collapses into
// an Unavailable outcome; nothing here ever returns an error to the caller.
type SemanticVerifier struct {
	cfg      model.Config
	provider llm.Provider // nil when the judge is disabled
}

// NewSemanticVerifier creates a semantic verifier. provider may be nil.
func NewSemanticVerifier(cfg model.Config, provider llm.Provider) *SemanticVerifier {
	return &SemanticVerifier{cfg: cfg, provider: provider}
}

// Enabled reports whether a judge provider is configured.
func (v *SemanticVerifier) Enabled() bool {
	return v.provider != nil
}

// Verify asks the judge for a verdict on answer-vs-evidence consistency.
func (v *SemanticVerifier) Verify(ctx context.Context, answer string, evidence []model.EvidenceChunk, query string) model.SemanticOutcome {
	if v.provider == nil {
		return model.SemanticUnavailable(model.ReasonProviderDisabled)
	}

	req := llm.CompletionRequest{
		System:      judgeSystemPrompt,
		Prompt:      BuildVerificationPrompt(answer, evidence, query),
		Temperature: 0.1,
		JSONMode:    true,
	}

	resp, err := v.provider.Complete(ctx, req)
	if err != nil {
		reason := model.ReasonProviderError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			reason = model.ReasonTimeout
		}
		xlog.Warn("semantic verification unavailable", "provider", v.provider.Name(), "reason", reason, "error", err)
		return model.SemanticUnavailable(reason)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		xlog.Warn("semantic verification unavailable", "provider", v.provider.Name(), "reason", model.ReasonEmptyResponse)
		return model.SemanticUnavailable(model.ReasonEmptyResponse)
	}

	verdict, err := ParseVerdict(resp.Content)
	if err != nil {
		xlog.Warn("semantic verdict did not parse", "provider", v.provider.Name(), "error", err)
		return model.SemanticUnavailable(model.ReasonParseError)
	}

	return model.SemanticOutcome{
		Available:  true,
		Verdict:    verdict,
		Confidence: v.MapVerdictConfidence(*verdict),
	}
}

// MapVerdictConfidence converts a judge verdict into the 0-1 confidence
// contribution used by the combiner. UNVERIFIED maps to a fixed low-mid
// value: absence of evidence is not evidence of correctness.
func (v *SemanticVerifier) MapVerdictConfidence(verdict model.SemanticVerdict) float64 {
	conf := clamp01(verdict.Confidence)
	switch verdict.Verdict {
	case model.VerdictSupported:
		return conf
	case model.VerdictContradicted:
		return clamp01((1.0 - conf) * v.cfg.ContradictedScale)
	case model.VerdictPartiallySupported:
		return clamp01(conf * v.cfg.PartialScale)
	default: // UNVERIFIED
		return clamp01(v.cfg.UnverifiedConfidence)
	}
}

// ParseVerdict extracts the structured verdict from raw judge output. Models
// wrap JSON in code fences or prose often enough that we locate the first
// top-level object instead of unmarshalling the whole body.
func ParseVerdict(content string) (*model.SemanticVerdict, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var verdict model.SemanticVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, err
	}

	verdict.Verdict = model.Verdict(strings.ToUpper(strings.TrimSpace(string(verdict.Verdict))))
	if !verdict.Verdict.Valid() {
		return nil, errors.New("verdict field missing or not in taxonomy")
	}
	verdict.Confidence = clamp01(verdict.Confidence)

	return &verdict, nil
}

// extractJSONObject returns the first balanced top-level {...} span.
func extractJSONObject(content string) (string, error) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", errors.New("no JSON object in judge output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}

	return "", errors.New("unbalanced JSON object in judge output")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
