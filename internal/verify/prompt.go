package verify

import (
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// QueryIntent is the coarse classification used to steer the judge's
// intent-specific analysis.
type QueryIntent string

const (
	IntentFactual    QueryIntent = "factual"
	IntentComparison QueryIntent = "comparison"
	IntentMethod     QueryIntent = "method"
	IntentOpinion    QueryIntent = "opinion"
)

var (
	comparisonMarkers = []string{"compare", "comparison", "versus", " vs ", "difference", "better", "比较", "对比", "区别", "哪个更"}
	methodMarkers     = []string{"how to", "how do", "how can", "steps", "method", "procedure", "如何", "怎样", "怎么", "步骤", "方法"}
	opinionMarkers    = []string{"opinion", "think", "views", "controversy", "debate", "观点", "看法", "评价", "争议", "立场"}
)

// ClassifyIntent buckets a query into one of the four coarse intents.
// Keyword-based: precision is good enough to pick a prompt section, nothing
// downstream depends on it being right.
func ClassifyIntent(query string) QueryIntent {
	lower := " " + strings.ToLower(query) + " "
	for _, m := range comparisonMarkers {
		if strings.Contains(lower, m) {
			return IntentComparison
		}
	}
	for _, m := range methodMarkers {
		if strings.Contains(lower, m) {
			return IntentMethod
		}
	}
	for _, m := range opinionMarkers {
		if strings.Contains(lower, m) {
			return IntentOpinion
		}
	}
	return IntentFactual
}

var intentGuidance = map[QueryIntent]string{
	IntentFactual:    "Focus on the accuracy of data points and the reliability of their sources.",
	IntentComparison: "Check that the comparison covers both sides on consistent dimensions.",
	IntentMethod:     "Verify that the described steps are feasible and match the evidence.",
	IntentOpinion:    "Check that viewpoints are attributed and represented in a balanced way.",
}

// judgeSystemPrompt is the role instruction sent with every verification call.
const judgeSystemPrompt = "You are a rigorous fact-checking judge. You verify a generated answer " +
	"strictly against the provided evidence passages. You never use outside knowledge: a statement " +
	"with no matching evidence is UNVERIFIED, not true or false."

// BuildVerificationPrompt assembles the single structured prompt for the
// judge: taxonomy, answer, per-source-tagged evidence, query and the
// intent-specific guidance, plus the fixed response schema.
func BuildVerificationPrompt(answer string, evidence []model.EvidenceChunk, query string) string {
	intent := ClassifyIntent(query)

	var b strings.Builder

	b.WriteString("Verify the answer against the evidence and classify it with exactly one verdict:\n")
	b.WriteString("- SUPPORTED: the evidence clearly supports every checkable statement\n")
	b.WriteString("- CONTRADICTED: the evidence clearly refutes at least one statement\n")
	b.WriteString("- PARTIALLY_SUPPORTED: some statements are supported, others are inaccurate or overstated\n")
	b.WriteString("- UNVERIFIED: the evidence is insufficient to judge\n\n")

	if query != "" {
		fmt.Fprintf(&b, "Original query: %s\n", query)
		fmt.Fprintf(&b, "Query intent: %s. %s\n\n", intent, intentGuidance[intent])
	} else {
		fmt.Fprintf(&b, "Original query: (not provided)\nQuery intent: %s. %s\n\n", intent, intentGuidance[intent])
	}

	fmt.Fprintf(&b, "Answer to verify:\n%s\n\n", answer)

	b.WriteString("Evidence passages:\n")
	for i, chunk := range evidence {
		fmt.Fprintf(&b, "[%d] (source: %s)\n%s\n\n", i+1, chunk.Source(), chunk.Text)
	}

	b.WriteString(`Respond with a single JSON object in exactly this schema:
{
  "verdict": "SUPPORTED|CONTRADICTED|PARTIALLY_SUPPORTED|UNVERIFIED",
  "confidence": 0.0,
  "supporting_evidence": [{"text": "...", "source": "...", "score": 0.0}],
  "contradicting_evidence": [{"text": "...", "source": "...", "score": 0.0}],
  "reasoning": "...",
  "intent_analysis": "..."
}
"confidence" is your 0-1 certainty in the verdict. "score" is per-item relevance
(supporting) or contradiction strength. Quote evidence text verbatim and use the
source labels given above. No prose outside the JSON object.`)

	return b.String()
}
