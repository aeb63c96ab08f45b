package model

// Verdict is the judge's classification of answer-vs-evidence consistency
type Verdict string

const (
	VerdictSupported          Verdict = "SUPPORTED"
	VerdictContradicted       Verdict = "CONTRADICTED"
	VerdictPartiallySupported Verdict = "PARTIALLY_SUPPORTED"
	VerdictUnverified         Verdict = "UNVERIFIED"
)

// Valid reports whether v is one of the four known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictSupported, VerdictContradicted, VerdictPartiallySupported, VerdictUnverified:
		return true
	}
	return false
}

// EvidenceRef is a judge-cited piece of evidence
type EvidenceRef struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"` // Relevance (supporting) or contradiction strength
}

// SemanticVerdict is the parsed structured output of the semantic judge
type SemanticVerdict struct {
	Verdict               Verdict       `json:"verdict"`
	Confidence            float64       `json:"confidence"` // As reported by the judge, 0-1
	SupportingEvidence    []EvidenceRef `json:"supporting_evidence,omitempty"`
	ContradictingEvidence []EvidenceRef `json:"contradicting_evidence,omitempty"`
	Reasoning             string        `json:"reasoning,omitempty"`
	IntentAnalysis        string        `json:"intent_analysis,omitempty"` // Intent-specific note from the judge
}

// UnavailableReason codes why the semantic verifier produced no verdict
type UnavailableReason string

const (
	ReasonNotRequested     UnavailableReason = "not_requested"     // Level did not ask for semantic checks
	ReasonProviderDisabled UnavailableReason = "provider_disabled" // No judge configured
	ReasonNoEvidence       UnavailableReason = "no_evidence"       // Nothing to judge the answer against
	ReasonTimeout          UnavailableReason = "timeout"
	ReasonProviderError    UnavailableReason = "provider_error" // Network, quota, auth
	ReasonParseError       UnavailableReason = "parse_error"    // Output did not match the schema
	ReasonEmptyResponse    UnavailableReason = "empty_response"
)

// SemanticOutcome is the explicit success-or-unavailable result of the
// semantic verifier. Exactly one of Verdict/Unavailable is meaningful:
// when Available is false the verifier degraded and Reason says why.
type SemanticOutcome struct {
	Available bool              `json:"available"`
	Verdict   *SemanticVerdict  `json:"verdict,omitempty"`
	Reason    UnavailableReason `json:"reason,omitempty"`
	// Confidence is the verdict mapped onto a 0-1 confidence contribution
	// (see verify.MapVerdictConfidence). Zero when unavailable.
	Confidence float64 `json:"confidence"`
}

// SemanticUnavailable builds the degraded outcome for the given reason.
func SemanticUnavailable(reason UnavailableReason) SemanticOutcome {
	return SemanticOutcome{Available: false, Reason: reason}
}
