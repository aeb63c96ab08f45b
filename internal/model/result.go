package model

import "fmt"

// Level is the requested verification thoroughness
type Level string

const (
	LevelBasic         Level = "basic"         // Rule checks only
	LevelSemantic      Level = "semantic"      // LLM judge only (rule fallback on failure)
	LevelComprehensive Level = "comprehensive" // Both, fused
)

// ParseLevel maps a string onto the closed level set, defaulting to
// comprehensive for the empty string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBasic, LevelSemantic, LevelComprehensive:
		return Level(s), nil
	case "":
		return LevelComprehensive, nil
	}
	return "", fmt.Errorf("unknown verification level: %q (supported: basic, semantic, comprehensive)", s)
}

// Details carries the per-stage outputs inside a VerificationResult
type Details struct {
	Basic    BasicResult     `json:"basic"`
	Semantic SemanticOutcome `json:"semantic"`
}

// VerificationResult is the sole externally visible output of a verification
// call. It is constructed once and never mutated afterwards.
type VerificationResult struct {
	HasHallucination  bool            `json:"has_hallucination"`
	ConfidenceScore   float64         `json:"confidence_score"` // Always in [0,1]
	ErrorDescriptions []string        `json:"error_descriptions"`
	Details           Details         `json:"verification_details"`
	EvidenceChunks    []EvidenceChunk `json:"evidence_chunks"` // Supporting subset, retrieval order
	Level             Level           `json:"verification_level"`
}
