package model

// EvidenceChunk represents a retrieved passage handed in by the retrieval
// stage. The verifier treats it as read-only and never mutates it.
type EvidenceChunk struct {
	Text     string            `json:"text"`               // Passage text
	Metadata map[string]string `json:"metadata,omitempty"` // Source metadata (e.g., "source" filename)
	Distance float64           `json:"distance"`           // Similarity distance to the query (lower = closer)
}

// Source returns the chunk's source label from metadata, or a fallback.
func (c EvidenceChunk) Source() string {
	if s, ok := c.Metadata["source"]; ok && s != "" {
		return s
	}
	return "unknown"
}

// ExtractedInfo is the structured bag of checkable units pulled out of an
// answer. It is produced fresh per verification call and never persisted.
type ExtractedInfo struct {
	Numbers  []string `json:"numbers"`  // Numeric tokens, verbatim, in order of appearance
	Entities []string `json:"entities"` // Proper-noun-like tokens
	Dates    []string `json:"dates"`    // Date-like tokens
	Claims   []string `json:"claims"`   // Declarative claim sentences
}

// IsEmpty reports whether nothing checkable was extracted.
func (i ExtractedInfo) IsEmpty() bool {
	return len(i.Numbers) == 0 && len(i.Entities) == 0 && len(i.Dates) == 0 && len(i.Claims) == 0
}
