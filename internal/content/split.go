package content

import (
	"regexp"
	"strings"
)

var (
	bulletRe   = regexp.MustCompile(`^(?:[-*•]|\d+[.)]|[a-z][.)])\s+`)
	tableRowRe = regexp.MustCompile(`^\|.*\|$`)
)

// splitByParagraphs splits on blank lines.
func splitByParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// classifyBlock infers the kind of one blank-line separated block.
func classifyBlock(block string) Kind {
	if strings.HasPrefix(block, "$$") {
		return KindEquation
	}
	lines := strings.Split(block, "\n")
	tables, bullets := 0, 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if tableRowRe.MatchString(l) {
			tables++
		}
		if bulletRe.MatchString(l) {
			bullets++
		}
	}
	switch {
	case tables == len(lines):
		return KindTable
	case bullets == len(lines):
		return KindListItem
	}
	return KindParagraph
}

// Blocks splits free text into typed blocks. A block of bullet lines yields
// one list item per line with the marker removed.
func Blocks(text string) []Block {
	var out []Block
	for _, p := range splitByParagraphs(text) {
		kind := classifyBlock(p)
		if kind != KindListItem {
			out = append(out, Block{Kind: kind, Text: p})
			continue
		}
		for _, l := range strings.Split(p, "\n") {
			l = strings.TrimSpace(l)
			out = append(out, Block{Kind: KindListItem, Text: bulletRe.ReplaceAllString(l, "")})
		}
	}
	return out
}

// Block is one typed piece of free text.
type Block struct {
	Kind Kind
	Text string
}

// Truncate shortens text to at most maxWords words, ending on a sentence
// boundary where one is available.
func Truncate(text string, maxWords int) string {
	if maxWords <= 0 || CountWords(text) <= maxWords {
		return text
	}
	var b strings.Builder
	words := 0
	for _, s := range splitSentences(text) {
		n := CountWords(s)
		if words+n > maxWords {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		words += n
	}
	if b.Len() > 0 {
		return b.String()
	}
	return strings.Join(strings.Fields(text)[:maxWords], " ")
}
