package textutil

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Fold normalizes text for matching: NFKC composition plus full-width to
// half-width folding, so that e.g. "７６８" compares equal to "768".
func Fold(s string) string {
	return norm.NFKC.String(width.Fold.String(s))
}

// LooksLikeHTML is a cheap check for evidence chunks that arrived as raw
// markup instead of extracted text.
func LooksLikeHTML(s string) bool {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "<") {
		return false
	}
	return strings.Contains(t, "</") || strings.Contains(t, "/>") || strings.Contains(strings.ToLower(t), "<html")
}

// VisibleText parses HTML and returns the visible text content, skipping
// script/style/noscript/iframe subtrees. On parse failure the input is
// returned unchanged; matching against raw markup beats losing the chunk.
func VisibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}

// SplitSentences segments text into sentences on ASCII and CJK terminators.
// It keeps the terminator attached and drops fragments shorter than min runes.
func SplitSentences(text string, min int) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len([]rune(sentence)) >= min {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？':
			flush()
		case '.', '!', '?':
			// Only split when followed by whitespace or end of text, to
			// avoid cutting decimals and abbreviations.
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}
