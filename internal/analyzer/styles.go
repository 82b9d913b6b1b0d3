package analyzer

import (
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// ExtractStyleRules aggregates formatting facts per named style. The first
// paragraph to record a fact for a style wins; later paragraphs only fill
// facts still missing. Unnamed paragraphs are grouped under "Normal".
func ExtractStyleRules(paragraphs []doctree.Paragraph) map[string]doctree.Format {
	rules := make(map[string]doctree.Format)
	for _, p := range paragraphs {
		if strings.TrimSpace(p.Text) == "" || p.Format.IsEmpty() {
			continue
		}
		name := p.StyleName
		if name == "" {
			name = "Normal"
		}
		f := rules[name]
		f.Fill(p.Format)
		rules[name] = f
	}
	return rules
}
