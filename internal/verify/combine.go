package verify

import (
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Combiner fuses the rule verifier's output with the semantic outcome into
// the final VerificationResult.
type Combiner struct {
	cfg model.Config
}

// NewCombiner creates a new combiner
func NewCombiner(cfg model.Config) *Combiner {
	return &Combiner{cfg: cfg}
}

// Combine applies the level's weighting policy, the hallucination threshold,
// and the supporting-evidence selection. The semantic outcome is recorded in
// the result verbatim: a degraded judge is flagged, never omitted.
func (c *Combiner) Combine(level model.Level, basic model.BasicResult, semantic model.SemanticOutcome, evidence []model.EvidenceChunk) *model.VerificationResult {
	var confidence float64
	var errs []string

	switch level {
	case model.LevelBasic:
		confidence = basic.Confidence
		errs = basic.Descriptions()

	case model.LevelSemantic:
		if semantic.Available {
			confidence = semantic.Confidence
			errs = semanticNarratives(semantic.Verdict)
		} else {
			// Documented fallback: behave as basic, degradation flagged
			// through the semantic outcome in the details.
			confidence = basic.Confidence
			errs = basic.Descriptions()
		}

	default: // comprehensive
		if semantic.Available {
			total := c.cfg.BasicWeight + c.cfg.SemanticWeight
			confidence = (c.cfg.BasicWeight*basic.Confidence + c.cfg.SemanticWeight*semantic.Confidence) / total
			errs = append(basic.Descriptions(), semanticNarratives(semantic.Verdict)...)
		} else {
			confidence = basic.Confidence
			errs = basic.Descriptions()
		}
	}

	confidence = clamp01(confidence)
	errs = dedupeStrings(errs)

	return &model.VerificationResult{
		HasHallucination:  confidence < c.cfg.HallucinationThreshold || len(errs) > 0,
		ConfidenceScore:   confidence,
		ErrorDescriptions: errs,
		Details: model.Details{
			Basic:    basic,
			Semantic: semantic,
		},
		EvidenceChunks: c.selectEvidence(basic, semantic, evidence),
		Level:          level,
	}
}

// selectEvidence picks the supporting subset: chunks the rule verifier
// matched, union chunks the judge cited as supporting. Input order (ascending
// retrieval distance) is preserved.
func (c *Combiner) selectEvidence(basic model.BasicResult, semantic model.SemanticOutcome, evidence []model.EvidenceChunk) []model.EvidenceChunk {
	include := make([]bool, len(evidence))
	for _, i := range basic.SupportedChunks {
		if i >= 0 && i < len(include) {
			include[i] = true
		}
	}

	if semantic.Available && semantic.Verdict != nil {
		for _, ref := range semantic.Verdict.SupportingEvidence {
			for i, chunk := range evidence {
				if include[i] {
					continue
				}
				if refMatchesChunk(ref, chunk) {
					include[i] = true
				}
			}
		}
	}

	out := make([]model.EvidenceChunk, 0, len(evidence))
	for i, keep := range include {
		if keep {
			out = append(out, evidence[i])
		}
	}
	return out
}

// refMatchesChunk maps a judge citation back onto an input chunk, by source
// label or by verbatim text containment.
func refMatchesChunk(ref model.EvidenceRef, chunk model.EvidenceChunk) bool {
	if ref.Source != "" && ref.Source == chunk.Source() {
		return true
	}
	if ref.Text != "" && strings.Contains(chunk.Text, strings.TrimSpace(ref.Text)) {
		return true
	}
	return false
}

// semanticNarratives turns a verdict's contradicting evidence into error
// descriptions for the result.
func semanticNarratives(verdict *model.SemanticVerdict) []string {
	if verdict == nil {
		return nil
	}

	var out []string
	for _, ref := range verdict.ContradictingEvidence {
		out = append(out, fmt.Sprintf("contradicted by %s: %s", ref.Source, truncateClaim(ref.Text, 80)))
	}

	switch verdict.Verdict {
	case model.VerdictContradicted:
		if len(out) == 0 {
			out = append(out, fmt.Sprintf("judge found the answer contradicted by evidence: %s", truncateClaim(verdict.Reasoning, 120)))
		}
	case model.VerdictPartiallySupported:
		out = append(out, fmt.Sprintf("answer only partially supported: %s", truncateClaim(verdict.Reasoning, 120)))
	}

	return out
}

// dedupeStrings collapses duplicate descriptions case-insensitively,
// preserving first-occurrence order.
func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
