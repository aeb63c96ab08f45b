package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/textutil"
)

// minClaimRunes filters out fragments too short to carry a checkable claim.
const minClaimRunes = 10

// unitSuffixes are single-rune unit-like suffixes kept attached to a number,
// so "768维" and "50%" are checked as written.
var unitSuffixes = map[rune]bool{
	'%': true, '年': true, '月': true, '日': true, '维': true,
	'个': true, '倍': true, '次': true, '岁': true, '元': true,
	'米': true, '克': true, '秒': true, '人': true, '条': true,
}

// hedgeMarkers disqualify a sentence from being treated as a claim.
var hedgeMarkers = []string{
	"maybe", "possibly", "perhaps", "probably", "presumably", "arguably",
	"可能", "也许", "大概", "或许", "似乎", "应该", "估计", "猜测",
}

// assertionVerbs mark a sentence as declarative even without numbers or
// entities.
var assertionVerbs = []string{
	" is ", " are ", " was ", " were ", " has ", " have ",
	"originated", "invented", "created", "established", "founded",
	"discovered", "developed", "defined as", "according to",
	"是", "为", "有", "属于", "位于", "表明", "证明", "发明", "创建",
}

// entityStoplist filters generic sentence-initial capitals that are not
// proper nouns.
var entityStoplist = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"A": true, "An": true, "It": true, "He": true, "She": true, "They": true,
	"We": true, "You": true, "In": true, "On": true, "At": true, "If": true,
	"But": true, "And": true, "Or": true, "For": true, "As": true, "By": true,
	"When": true, "Where": true, "There": true, "Here": true, "However": true,
	"Also": true, "According": true, "Based": true,
}

var (
	// Latin proper-noun runs: capitalized tokens (letters, digits and the
	// product-name punctuation set), optionally joined by single spaces.
	entityPattern = regexp.MustCompile(`[A-Z][A-Za-z0-9./_-]*(?: [A-Z][A-Za-z0-9./_-]*)*`)

	// Quoted/bracketed proper-noun-like spans for non-Latin text.
	quotedPattern = regexp.MustCompile(`[「《“"']([^「」《》“”"']{2,50})[」》”"']`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日`),
		regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
		regexp.MustCompile(`\d{4}年`),
	}
)

// Extractor scans answer text and produces the structured bag of checkable
// units. It is a pure function of its input: no I/O, deterministic.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract pulls numbers, entities, dates and claim sentences out of the
// answer. An empty or whitespace-only answer yields empty sequences.
func (e *Extractor) Extract(answer string) model.ExtractedInfo {
	info := model.ExtractedInfo{}

	if strings.TrimSpace(answer) == "" {
		return info
	}

	info.Numbers = extractNumbers(answer)
	info.Entities = extractEntities(answer)
	info.Dates = extractDates(answer)
	info.Claims = extractClaims(answer, info.Numbers, info.Entities)

	return info
}

// Numbers exposes numeric-token extraction on its own; the rule verifier
// uses it to pull comparable numbers out of evidence text.
func Numbers(text string) []string {
	return extractNumbers(text)
}

// extractNumbers captures every maximal digit run verbatim, allowing one
// decimal point, comma-grouped thousands, and a trailing unit-like suffix.
func extractNumbers(text string) []string {
	runes := []rune(text)
	var numbers []string
	seen := make(map[string]bool)

	for i := 0; i < len(runes); i++ {
		if !unicode.IsDigit(runes[i]) {
			continue
		}

		start := i
		sawDot := false
		for i+1 < len(runes) {
			next := runes[i+1]
			if unicode.IsDigit(next) {
				i++
				continue
			}
			// One decimal point, or comma-grouped thousands, when digits follow.
			if (next == ',' || (next == '.' && !sawDot)) && i+2 < len(runes) && unicode.IsDigit(runes[i+2]) {
				if next == '.' {
					sawDot = true
				}
				i++
				continue
			}
			break
		}

		// Optional unit suffix
		if i+1 < len(runes) && unitSuffixes[runes[i+1]] {
			i++
		}

		token := string(runes[start : i+1])
		if !seen[token] {
			seen[token] = true
			numbers = append(numbers, token)
		}
	}

	return numbers
}

// extractEntities captures capitalized Latin runs and quoted non-Latin spans.
func extractEntities(text string) []string {
	var entities []string
	seen := make(map[string]bool)

	add := func(candidate string) {
		candidate = strings.Trim(candidate, "./-_ ")
		// Sentence-initial capitals glue onto the name that follows
		// them; strip leading stoplisted words so the proper noun
		// itself survives ("The BAAI/..." -> "BAAI/...").
		for {
			word, rest, ok := strings.Cut(candidate, " ")
			if !ok || !entityStoplist[word] {
				break
			}
			candidate = rest
		}
		if len([]rune(candidate)) < 2 {
			return
		}
		if entityStoplist[candidate] {
			return
		}
		key := strings.ToLower(candidate)
		if !seen[key] {
			seen[key] = true
			entities = append(entities, candidate)
		}
	}

	for _, m := range entityPattern.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return entities
}

func extractDates(text string) []string {
	var dates []string
	seen := make(map[string]bool)
	for _, p := range datePatterns {
		for _, m := range p.FindAllString(text, -1) {
			if !seen[m] {
				seen[m] = true
				dates = append(dates, m)
			}
		}
	}
	return dates
}

// extractClaims keeps declarative sentences that carry a factual marker
// (number, entity, or assertion verb) and are neither questions nor hedged.
func extractClaims(text string, numbers, entities []string) []string {
	sentences := textutil.SplitSentences(text, minClaimRunes)

	var claims []string
	seen := make(map[string]bool)

	for _, sentence := range sentences {
		if isQuestion(sentence) || isHedged(sentence) {
			continue
		}
		if !hasFactualMarker(sentence, numbers, entities) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(sentence))
		if !seen[key] {
			seen[key] = true
			claims = append(claims, sentence)
		}
	}

	return claims
}

func isQuestion(sentence string) bool {
	s := strings.TrimSpace(sentence)
	return strings.HasSuffix(s, "?") || strings.HasSuffix(s, "？")
}

func isHedged(sentence string) bool {
	lower := strings.ToLower(strings.TrimSpace(sentence))
	for _, marker := range hedgeMarkers {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}

func hasFactualMarker(sentence string, numbers, entities []string) bool {
	for _, r := range sentence {
		if unicode.IsDigit(r) {
			return true
		}
	}
	for _, entity := range entities {
		if strings.Contains(sentence, entity) {
			return true
		}
	}
	lower := " " + strings.ToLower(sentence) + " "
	for _, verb := range assertionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}
