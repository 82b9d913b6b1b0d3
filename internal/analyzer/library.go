package analyzer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// DefaultPatternsYAML returns the embedded default pattern library source.
func DefaultPatternsYAML() []byte {
	out := make([]byte, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// Pattern is one typed recognition rule.
type Pattern struct {
	Name       string  `yaml:"name"`
	Expr       string  `yaml:"pattern"`
	IgnoreCase bool    `yaml:"ignore_case"`
	Confidence float64 `yaml:"confidence"`
	Level      *int    `yaml:"level"`      // hierarchy level implied for headers
	MaxLength  int     `yaml:"max_length"` // runes; 0 means unbounded
	MergeNext  bool    `yaml:"merge_next"` // bare number heading, title follows

	re *regexp.Regexp
}

// Match applies the pattern to text and returns its named groups.
func (p *Pattern) Match(text string) (map[string]string, bool) {
	if p.re == nil {
		return nil, false
	}
	if p.MaxLength > 0 && len([]rune(text)) > p.MaxLength {
		return nil, false
	}
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	fields := make(map[string]string)
	for i, name := range p.re.SubexpNames() {
		if name != "" && i < len(m) && m[i] != "" {
			fields[name] = strings.TrimSpace(m[i])
		}
	}
	return fields, true
}

// CapsHeuristic detects short ALL-CAPS headings.
type CapsHeuristic struct {
	MinLength  int      `yaml:"min_length"`
	MaxLength  int      `yaml:"max_length"`
	MaxWords   int      `yaml:"max_words"`
	Confidence float64  `yaml:"confidence"`
	Level      int      `yaml:"level"`
	Exclude    []string `yaml:"exclude"`

	exclude []*regexp.Regexp
}

// Structural detects table and figure references.
type Structural struct {
	Keywords   []string `yaml:"keywords"`
	Confidence float64  `yaml:"confidence"`
	MaxLength  int      `yaml:"max_length"`

	re *regexp.Regexp
}

// KeywordSet maps a label to the lowercase keywords that select it.
type KeywordSet struct {
	Type     string   `yaml:"type"`
	Kind     string   `yaml:"kind"`
	Chapter  int      `yaml:"chapter"`
	Keywords []string `yaml:"keywords"`
}

// matches reports whether lower contains any keyword.
func (k KeywordSet) matches(lower string) bool {
	for _, kw := range k.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// WordEstimate holds placeholder length defaults.
type WordEstimate struct {
	Default   int `yaml:"default"`
	ByKeyword []struct {
		Keyword string `yaml:"keyword"`
		Words   int    `yaml:"words"`
	} `yaml:"by_keyword"`
}

// Weight is one capped component of the structural confidence score.
type Weight struct {
	PerMatch float64 `yaml:"per_match"`
	Cap      float64 `yaml:"cap"`
}

func (w Weight) score(n int) float64 {
	return min(float64(n)*w.PerMatch, w.Cap)
}

// ConfidenceWeights configures the structural confidence score.
type ConfidenceWeights struct {
	Chapters     Weight `yaml:"chapters"`
	Subsections  Weight `yaml:"subsections"`
	Placeholders Weight `yaml:"placeholders"`
	Styles       Weight `yaml:"styles"`
	Classified   Weight `yaml:"classified"`
}

// Library is the immutable, compiled pattern configuration consumed by the
// classifier. Build one with LoadLibrary or DefaultLibrary.
type Library struct {
	DefaultConfidence      float64           `yaml:"default_confidence"`
	HeadingStyleConfidence float64           `yaml:"heading_style_confidence"`
	Chapters               []*Pattern        `yaml:"chapters"`
	Subsections            []*Pattern        `yaml:"subsections"`
	Caps                   CapsHeuristic     `yaml:"caps_heuristic"`
	FrontMatter            []*Pattern        `yaml:"front_matter"`
	BackMatter             []*Pattern        `yaml:"back_matter"`
	Placeholders           []*Pattern        `yaml:"placeholders"`
	Structural             Structural        `yaml:"structural"`
	SectionTypes           []KeywordSet      `yaml:"section_types"`
	StandardChapters       []KeywordSet      `yaml:"standard_chapters"`
	PlaceholderKinds       []KeywordSet      `yaml:"placeholder_kinds"`
	ContentTypes           []KeywordSet      `yaml:"content_types"`
	EstimatedWords         WordEstimate      `yaml:"estimated_words"`
	Confidence             ConfidenceWeights `yaml:"confidence"`
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// DefaultLibrary returns the compiled embedded pattern library.
func DefaultLibrary() *Library {
	defaultOnce.Do(func() {
		lib, err := LoadLibrary(bytes.NewReader(defaultPatterns))
		if err != nil {
			panic(fmt.Sprintf("embedded pattern library: %v", err))
		}
		defaultLib = lib
	})
	return defaultLib
}

// LoadLibraryFile reads and compiles a pattern library from path.
func LoadLibraryFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pattern library: %w", err)
	}
	defer f.Close()
	return LoadLibrary(f)
}

// LoadLibrary decodes and compiles a YAML pattern library. Every invalid
// expression is reported, not just the first.
func LoadLibrary(r io.Reader) (*Library, error) {
	var lib Library
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lib); err != nil {
		return nil, fmt.Errorf("decode pattern library: %w", err)
	}
	if err := lib.compile(); err != nil {
		return nil, err
	}
	return &lib, nil
}

func (l *Library) compile() error {
	var errs error
	groups := []struct {
		name     string
		patterns []*Pattern
	}{
		{"chapters", l.Chapters},
		{"subsections", l.Subsections},
		{"front_matter", l.FrontMatter},
		{"back_matter", l.BackMatter},
		{"placeholders", l.Placeholders},
	}
	for _, g := range groups {
		for i, p := range g.patterns {
			if p == nil {
				errs = multierr.Append(errs, fmt.Errorf("%s[%d]: empty entry", g.name, i))
				continue
			}
			if p.Name == "" {
				p.Name = fmt.Sprintf("%s_%d", g.name, i)
			}
			if p.Confidence < 0 || p.Confidence > 1 {
				errs = multierr.Append(errs, fmt.Errorf("%s/%s: confidence %v outside [0,1]", g.name, p.Name, p.Confidence))
			}
			expr := p.Expr
			if p.IgnoreCase {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", g.name, p.Name, err))
				continue
			}
			p.re = re
		}
	}

	for _, expr := range l.Caps.Exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("caps_heuristic exclude %q: %w", expr, err))
			continue
		}
		l.Caps.exclude = append(l.Caps.exclude, re)
	}

	if len(l.Structural.Keywords) > 0 {
		quoted := make([]string, len(l.Structural.Keywords))
		for i, kw := range l.Structural.Keywords {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		re, err := regexp.Compile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("structural keywords: %w", err))
		} else {
			l.Structural.re = re
		}
	}

	if l.DefaultConfidence <= 0 {
		l.DefaultConfidence = 0.5
	}
	if l.HeadingStyleConfidence <= 0 {
		l.HeadingStyleConfidence = 0.85
	}
	if l.EstimatedWords.Default <= 0 {
		l.EstimatedWords.Default = 150
	}
	return errs
}

// sectionType classifies subsection text by keyword, "general" if none applies.
func (l *Library) sectionType(text string) string {
	lower := strings.ToLower(text)
	for _, s := range l.SectionTypes {
		if s.matches(lower) {
			return s.Type
		}
	}
	return "general"
}

// standardChapter maps chapter text onto the standard research structure, 0 if unknown.
func (l *Library) standardChapter(text string) int {
	lower := strings.ToLower(text)
	for _, s := range l.StandardChapters {
		if s.matches(lower) {
			return s.Chapter
		}
	}
	return 0
}

func (l *Library) placeholderKind(text string) string {
	lower := strings.ToLower(text)
	for _, s := range l.PlaceholderKinds {
		if s.matches(lower) {
			return s.Kind
		}
	}
	return "text"
}

func (l *Library) contentType(text string) string {
	lower := strings.ToLower(text)
	for _, s := range l.ContentTypes {
		if s.matches(lower) {
			return s.Type
		}
	}
	return "narrative"
}

func (l *Library) estimatedWords(text string) int {
	lower := strings.ToLower(text)
	for _, e := range l.EstimatedWords.ByKeyword {
		if strings.Contains(lower, e.Keyword) {
			return e.Words
		}
	}
	return l.EstimatedWords.Default
}
