package analyzer

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/docfill/internal/doctree"
)

type ruleKind int

const (
	rulePattern ruleKind = iota
	ruleHeadingStyle
	ruleCaps
	ruleStructural
)

// rule is one row of the classification table: a predicate, the zone type it
// assigns and the confidence attached when it fires.
type rule struct {
	name       string
	kind       ruleKind
	zone       ZoneType
	category   Category
	confidence float64
	level      *int
	pattern    *Pattern
}

// buildRules lays out the library as an ordered rule table. Order encodes
// priority: header > front/back matter > placeholder > structural.
func buildRules(lib *Library) []rule {
	var rules []rule
	add := func(zone ZoneType, cat Category, patterns []*Pattern) {
		for _, p := range patterns {
			rules = append(rules, rule{
				name:       p.Name,
				kind:       rulePattern,
				zone:       zone,
				category:   cat,
				confidence: p.Confidence,
				level:      p.Level,
				pattern:    p,
			})
		}
	}
	add(ZoneHeader, CategoryChapters, lib.Chapters)
	add(ZoneHeader, CategorySubsections, lib.Subsections)
	rules = append(rules,
		rule{name: "heading_style", kind: ruleHeadingStyle, zone: ZoneHeader, confidence: lib.HeadingStyleConfidence},
		rule{name: "all_caps", kind: ruleCaps, zone: ZoneHeader, confidence: lib.Caps.Confidence, level: &lib.Caps.Level},
	)
	add(ZoneFrontMatter, CategoryFrontMatter, lib.FrontMatter)
	add(ZoneBackMatter, CategoryBackMatter, lib.BackMatter)
	add(ZonePlaceholder, CategoryPlaceholders, lib.Placeholders)
	rules = append(rules, rule{name: "structural_keyword", kind: ruleStructural, zone: ZoneStructural, confidence: lib.Structural.Confidence})
	return rules
}

// classification is the outcome of running the rule table on one paragraph.
// A nil rule means nothing matched and the paragraph is body content.
type classification struct {
	rule   *rule
	fields map[string]string
}

func (c classification) zoneType() ZoneType {
	if c.rule == nil {
		return ZoneContent
	}
	return c.rule.zone
}

// classifier evaluates the rule table. It owns a case mapper, so one
// classifier must not be shared between goroutines.
type classifier struct {
	lib   *Library
	rules []rule
	upper cases.Caser
}

func newClassifier(lib *Library, rules []rule) *classifier {
	return &classifier{
		lib:   lib,
		rules: rules,
		upper: cases.Upper(language.Indonesian),
	}
}

// classify returns the first rule in table order that matches.
func (c *classifier) classify(p doctree.Paragraph, text string) classification {
	for i := range c.rules {
		if fields, ok := c.match(&c.rules[i], p, text); ok {
			return classification{rule: &c.rules[i], fields: fields}
		}
	}
	return classification{}
}

func (c *classifier) match(r *rule, p doctree.Paragraph, text string) (map[string]string, bool) {
	switch r.kind {
	case rulePattern:
		return r.pattern.Match(text)
	case ruleHeadingStyle:
		return nil, p.OutlineLevel != nil
	case ruleCaps:
		return nil, c.isCapsHeading(text)
	case ruleStructural:
		s := c.lib.Structural
		if s.re == nil || (s.MaxLength > 0 && len([]rune(text)) > s.MaxLength) {
			return nil, false
		}
		return nil, s.re.MatchString(text)
	}
	return nil, false
}

// isCapsHeading applies the short ALL-CAPS heuristic.
func (c *classifier) isCapsHeading(text string) bool {
	h := c.lib.Caps
	n := len([]rune(text))
	if n < h.MinLength || (h.MaxLength > 0 && n > h.MaxLength) {
		return false
	}
	if h.MaxWords > 0 && len(strings.Fields(text)) > h.MaxWords {
		return false
	}
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return false
	}
	if c.upper.String(text) != text {
		return false
	}
	for _, re := range h.exclude {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

// matchCategory runs every pattern of one category against text and returns
// the highest-confidence match; ties go to the earlier pattern.
func matchCategory(patterns []*Pattern, text string) (*Pattern, map[string]string, bool) {
	var best *Pattern
	var bestFields map[string]string
	for _, p := range patterns {
		fields, ok := p.Match(text)
		if !ok {
			continue
		}
		if best == nil || p.Confidence > best.Confidence {
			best, bestFields = p, fields
		}
	}
	return best, bestFields, best != nil
}

var romanValues = map[rune]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// parseRoman converts a canonical Roman numeral, returning 0 for anything
// invalid or non-canonical ("IIV", "VX").
func parseRoman(s string) int {
	s = strings.ToUpper(s)
	total := 0
	for i, r := range s {
		v, ok := romanValues[r]
		if !ok {
			return 0
		}
		if i+1 < len(s) && romanValues[rune(s[i+1])] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || formatRoman(total) != s {
		return 0
	}
	return total
}

var romanDigits = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func formatRoman(n int) string {
	var b strings.Builder
	for _, d := range romanDigits {
		for n >= d.value {
			b.WriteString(d.symbol)
			n -= d.value
		}
	}
	return b.String()
}

// chapterNumber converts a detected heading number ("IV", "3") to an int.
func chapterNumber(number string) int {
	if number == "" {
		return 0
	}
	if n, err := strconv.Atoi(number); err == nil {
		return n
	}
	return parseRoman(number)
}
