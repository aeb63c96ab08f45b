package model

// IssueKind classifies a rule-check finding
type IssueKind string

const (
	IssueNumberUnsupported IssueKind = "number_unsupported" // Number absent from all evidence
	IssueEntityUnsupported IssueKind = "entity_unsupported" // Entity absent from all evidence
	IssueClaimUnsupported  IssueKind = "claim_unsupported"  // Claim keyword coverage below threshold
)

// Issue is a single concrete finding produced by the rule verifier
type Issue struct {
	Kind          IssueKind `json:"kind"`
	Description   string    `json:"description"`    // Human-readable description
	Target        string    `json:"target"`         // The number/entity/claim the issue refers to
	EvidenceScore float64   `json:"evidence_score"` // Best support score observed (claims only)
}

// BasicResult is the output of the rule verifier
type BasicResult struct {
	Confidence      float64  `json:"confidence"`       // 0-1
	Issues          []Issue  `json:"issues"`           // Findings, in check order
	ChecksPerformed []string `json:"checks_performed"` // Names of the rules that ran
	SupportedChunks []int    `json:"supported_chunks"` // Indices of evidence chunks that supported something
	Truncated       bool     `json:"truncated"`        // Evidence was cut to the processing budget
}

// Descriptions returns the issue descriptions in order.
func (r BasicResult) Descriptions() []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.Description)
	}
	return out
}
