package verify

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/groundcheck/groundcheck/internal/extract"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/textutil"
)

// Check names reported in BasicResult.ChecksPerformed.
const (
	checkEvidencePresence = "evidence_presence"
	checkNumbers          = "number_consistency"
	checkEntities         = "entity_existence"
	checkClaims           = "claim_support"
)

// stopwords are dropped from claim keyword coverage.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "this": true, "that": true, "as": true,
	"by": true, "from": true, "it": true, "its": true, "which": true,
	"also": true, "can": true, "will": true, "not": true,
}

// EvidenceIndex is the evidence view handed to rule functions: chunk texts
// pre-folded for matching, plus a recorder for which chunks supported
// anything. Rules never mutate the chunks themselves.
type EvidenceIndex struct {
	chunks    []model.EvidenceChunk
	folded    []string   // Lowercased, width-folded chunk text
	numbers   [][]string // Normalized numeric tokens per chunk, built lazily
	supported []bool
}

// NewEvidenceIndex prepares the evidence set for rule matching.
func NewEvidenceIndex(chunks []model.EvidenceChunk) *EvidenceIndex {
	idx := &EvidenceIndex{
		chunks:    chunks,
		folded:    make([]string, len(chunks)),
		supported: make([]bool, len(chunks)),
	}
	for i, c := range chunks {
		idx.folded[i] = strings.ToLower(textutil.Fold(c.Text))
	}
	return idx
}

// Len returns the number of evidence chunks.
func (e *EvidenceIndex) Len() int { return len(e.chunks) }

// Mark records that chunk i supported at least one checked unit.
func (e *EvidenceIndex) Mark(i int) {
	if i >= 0 && i < len(e.supported) {
		e.supported[i] = true
	}
}

// SupportedIndices returns the indices of supporting chunks in input order.
func (e *EvidenceIndex) SupportedIndices() []int {
	var out []int
	for i, s := range e.supported {
		if s {
			out = append(out, i)
		}
	}
	return out
}

func (e *EvidenceIndex) chunkNumbers(i int) []string {
	if e.numbers == nil {
		e.numbers = make([][]string, len(e.chunks))
	}
	if e.numbers[i] == nil {
		raw := extract.Numbers(e.chunks[i].Text)
		norm := make([]string, 0, len(raw))
		for _, n := range raw {
			if v, ok := normalizeNumber(n); ok {
				norm = append(norm, v)
			}
		}
		if norm == nil {
			norm = []string{}
		}
		e.numbers[i] = norm
	}
	return e.numbers[i]
}

// RuleFunc checks extracted units against the evidence and reports issues.
// Custom rules registered on the verifier compose with the built-ins.
type RuleFunc func(info model.ExtractedInfo, ev *EvidenceIndex) []model.Issue

type namedRule struct {
	name string
	fn   RuleFunc
}

// RuleVerifier runs the registered rule set over extracted info. Pure string
// processing: no I/O, no external calls.
type RuleVerifier struct {
	cfg   model.Config
	rules []namedRule
}

// NewRuleVerifier creates a rule verifier with the built-in number, entity
// and claim checks.
func NewRuleVerifier(cfg model.Config) *RuleVerifier {
	v := &RuleVerifier{cfg: cfg}
	v.rules = []namedRule{
		{checkNumbers, v.checkNumbers},
		{checkEntities, v.checkEntities},
		{checkClaims, v.checkClaims},
	}
	return v
}

// Register appends a custom rule to the verifier's rule set.
func (v *RuleVerifier) Register(name string, fn RuleFunc) {
	v.rules = append(v.rules, namedRule{name, fn})
}

// Verify runs every rule against the evidence and scores the result.
func (v *RuleVerifier) Verify(info model.ExtractedInfo, chunks []model.EvidenceChunk) model.BasicResult {
	if len(chunks) == 0 {
		// Total absence of support: nothing in the answer is verifiable.
		return model.BasicResult{
			Confidence: 0.0,
			Issues: []model.Issue{{
				Kind:        model.IssueClaimUnsupported,
				Description: "no evidence retrieved; the answer has no support",
			}},
			ChecksPerformed: []string{checkEvidencePresence},
		}
	}

	ev := NewEvidenceIndex(chunks)

	result := model.BasicResult{
		ChecksPerformed: []string{checkEvidencePresence},
	}
	for _, rule := range v.rules {
		result.Issues = append(result.Issues, rule.fn(info, ev)...)
		result.ChecksPerformed = append(result.ChecksPerformed, rule.name)
	}
	result.SupportedChunks = ev.SupportedIndices()
	result.Confidence = v.score(result.Issues)

	return result
}

// score turns the issue list into a confidence: start at 1.0, subtract a
// penalty per issue, floor at zero. A clean run reports the baseline rather
// than 1.0; rule checks are necessary, not sufficient.
func (v *RuleVerifier) score(issues []model.Issue) float64 {
	if len(issues) == 0 {
		return v.cfg.NoIssueBaseline
	}

	confidence := 1.0
	for _, issue := range issues {
		switch issue.Kind {
		case model.IssueNumberUnsupported:
			confidence -= v.cfg.NumberPenalty
		case model.IssueEntityUnsupported:
			confidence -= v.cfg.EntityPenalty
		case model.IssueClaimUnsupported:
			gap := v.cfg.ClaimSupportThreshold - issue.EvidenceScore
			if gap < 0 {
				gap = 0
			}
			confidence -= v.cfg.ClaimPenaltyScale * gap / v.cfg.ClaimSupportThreshold
		}
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// checkNumbers verifies each number appears literally, or as a numerically
// equal value, in at least one evidence chunk.
func (v *RuleVerifier) checkNumbers(info model.ExtractedInfo, ev *EvidenceIndex) []model.Issue {
	var issues []model.Issue

	for _, number := range info.Numbers {
		needle := strings.ToLower(textutil.Fold(number))
		found := false

		for i := 0; i < ev.Len(); i++ {
			if strings.Contains(ev.folded[i], needle) {
				ev.Mark(i)
				found = true
			}
		}
		if found {
			continue
		}

		// Normalized numeric equality: "768" matches "768.0", "1,024"
		// matches "1024".
		if want, ok := normalizeNumber(number); ok {
			for i := 0; i < ev.Len(); i++ {
				for _, have := range ev.chunkNumbers(i) {
					if have == want {
						ev.Mark(i)
						found = true
						break
					}
				}
			}
		}
		if found {
			continue
		}

		issues = append(issues, model.Issue{
			Kind:        model.IssueNumberUnsupported,
			Description: fmt.Sprintf("number '%s' not found in retrieved evidence", number),
			Target:      number,
		})
	}

	return issues
}

// checkEntities verifies each entity appears case-insensitively in at least
// one evidence chunk.
func (v *RuleVerifier) checkEntities(info model.ExtractedInfo, ev *EvidenceIndex) []model.Issue {
	var issues []model.Issue

	for _, entity := range info.Entities {
		needle := strings.ToLower(textutil.Fold(entity))
		found := false
		for i := 0; i < ev.Len(); i++ {
			if strings.Contains(ev.folded[i], needle) {
				ev.Mark(i)
				found = true
			}
		}
		if !found {
			issues = append(issues, model.Issue{
				Kind:        model.IssueEntityUnsupported,
				Description: fmt.Sprintf("entity '%s' not found in retrieved evidence", entity),
				Target:      entity,
			})
		}
	}

	return issues
}

// checkClaims scores each claim by the fraction of its content keywords
// covered by a single evidence chunk, and flags claims below the threshold.
func (v *RuleVerifier) checkClaims(info model.ExtractedInfo, ev *EvidenceIndex) []model.Issue {
	var issues []model.Issue

	for _, claim := range info.Claims {
		keywords := ClaimKeywords(claim)
		if len(keywords) == 0 {
			continue
		}

		best := 0.0
		bestChunk := -1
		for i := 0; i < ev.Len(); i++ {
			matched := 0
			for _, kw := range keywords {
				if strings.Contains(ev.folded[i], kw) {
					matched++
				}
			}
			score := float64(matched) / float64(len(keywords))
			if score > best {
				best = score
				bestChunk = i
			}
		}

		if best >= v.cfg.ClaimSupportThreshold {
			ev.Mark(bestChunk)
			continue
		}

		issues = append(issues, model.Issue{
			Kind:          model.IssueClaimUnsupported,
			Description:   fmt.Sprintf("claim '%s' insufficiently supported by evidence (score %.2f)", truncateClaim(claim, 50), best),
			Target:        claim,
			EvidenceScore: best,
		})
	}

	return issues
}

// ClaimKeywords tokenizes a claim for coverage scoring: lowercased Latin and
// digit runs with stopwords removed, and overlapping character bigrams for
// CJK runs (which have no whitespace word boundaries).
func ClaimKeywords(claim string) []string {
	folded := strings.ToLower(textutil.Fold(claim))

	var keywords []string
	seen := make(map[string]bool)
	add := func(kw string) {
		if kw == "" || stopwords[kw] || seen[kw] {
			return
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}

	var run []rune
	var cjk []rune
	flushRun := func() {
		if len(run) >= 2 {
			add(string(run))
		}
		run = run[:0]
	}
	flushCJK := func() {
		for i := 0; i+1 < len(cjk); i++ {
			add(string(cjk[i : i+2]))
		}
		cjk = cjk[:0]
	}

	for _, r := range folded {
		switch {
		case isCJK(r):
			flushRun()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			run = append(run, r)
		default:
			flushRun()
			flushCJK()
		}
	}
	flushRun()
	flushCJK()

	return keywords
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// normalizeNumber reduces a numeric token to a canonical decimal string:
// width-folded, thousands separators and unit suffixes stripped, trailing
// zeros dropped ("768.0" -> "768", "1,024维" -> "1024").
func normalizeNumber(token string) (string, bool) {
	folded := textutil.Fold(token)
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return "", false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

func truncateClaim(claim string, max int) string {
	runes := []rune(claim)
	if len(runes) <= max {
		return claim
	}
	return string(runes[:max]) + "..."
}
