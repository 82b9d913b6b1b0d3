// Package style derives the formatting applied to inserted content from the
// template's recorded style facts.
package style

import (
	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/doctree"
)

// Defaults is the academic fallback used for facts the template does not record.
type Defaults struct {
	Body        doctree.Format `yaml:"body"`
	Header      doctree.Format `yaml:"header"`
	HeaderSizes []float64      `yaml:"header_sizes"` // points, indexed by level
	LevelIndent float64        `yaml:"level_indent"` // cm added per hierarchy level
	ListIndent  float64        `yaml:"list_indent"`  // cm hanging indent for list items
}

// DefaultDefaults returns the Indonesian thesis defaults: Times New Roman
// 12pt, justified, 1.5 spacing, 1cm first-line indent; headings bold and
// centered.
func DefaultDefaults() Defaults {
	return Defaults{
		Body: doctree.Format{
			FontFamily:      "Times New Roman",
			FontSize:        12,
			Bold:            doctree.Bool(false),
			Italic:          doctree.Bool(false),
			Alignment:       doctree.AlignJustify,
			LineSpacing:     1.5,
			FirstLineIndent: 1.0,
		},
		Header: doctree.Format{
			FontFamily:  "Times New Roman",
			Bold:        doctree.Bool(true),
			Italic:      doctree.Bool(false),
			Alignment:   doctree.AlignCenter,
			LineSpacing: 1.5,
			SpaceBefore: 24,
			SpaceAfter:  12,
		},
		HeaderSizes: []float64{16, 14, 12, 12, 12},
		LevelIndent: 0.5,
		ListIndent:  0.63,
	}
}

// headerSize returns the fallback size for a heading level.
func (d Defaults) headerSize(level int) float64 {
	if len(d.HeaderSizes) == 0 {
		return d.Body.FontSize
	}
	if level < 0 {
		level = 0
	}
	if level >= len(d.HeaderSizes) {
		level = len(d.HeaderSizes) - 1
	}
	return d.HeaderSizes[level]
}

// Engine resolves formatting for zones of one analysed template.
type Engine struct {
	rules    map[string]doctree.Format
	defaults Defaults
}

// New returns an Engine over the template's style rules with the academic defaults.
func New(rules map[string]doctree.Format) *Engine {
	return NewWithDefaults(rules, DefaultDefaults())
}

// NewWithDefaults returns an Engine with custom fallbacks.
func NewWithDefaults(rules map[string]doctree.Format, d Defaults) *Engine {
	return &Engine{rules: rules, defaults: d}
}

// Resolve derives the attribute set for content placed into z. Facts recorded
// for the zone's style (and on the zone's paragraph) take precedence over the
// defaults; headers are always bold and each hierarchy level adds a left
// indent step.
func (e *Engine) Resolve(z *analyzer.Zone) doctree.Format {
	recorded := doctree.Overlay(e.rules[ruleName(z.Style.Name)], z.Style.Format)

	var fallback doctree.Format
	if z.Type == analyzer.ZoneHeader {
		fallback = e.defaults.Header
		fallback.FontSize = e.defaults.headerSize(z.Level)
	} else {
		fallback = e.defaults.Body
	}
	f := doctree.Overlay(fallback, recorded)

	if z.Type == analyzer.ZoneHeader {
		f.Bold = doctree.Bool(true)
	}
	if z.Level > 0 {
		f.LeftIndent += e.defaults.LevelIndent * float64(z.Level)
	}
	return f
}

// ResolveFor resolves z and then adjusts for the kind of content placed in it.
func (e *Engine) ResolveFor(z *analyzer.Zone, kind content.Kind) doctree.Format {
	return e.AdjustForKind(e.Resolve(z), kind)
}

// AdjustForKind applies content-kind formatting on top of a resolved style.
func (e *Engine) AdjustForKind(f doctree.Format, kind content.Kind) doctree.Format {
	switch kind {
	case content.KindChapterTitle:
		f.Bold = doctree.Bool(true)
		f.Alignment = doctree.AlignCenter
		f.FontSize = 14
		f.FirstLineIndent = 0
	case content.KindSubsectionTitle:
		f.Bold = doctree.Bool(true)
		f.Alignment = doctree.AlignLeft
		f.FontSize = 12
		f.FirstLineIndent = 0
	case content.KindListItem:
		f.LeftIndent += e.defaults.ListIndent
		f.FirstLineIndent = -e.defaults.ListIndent
	case content.KindTable:
		f.FontSize = 10
		f.FirstLineIndent = 0
	case content.KindEquation:
		f.Alignment = doctree.AlignCenter
		f.FirstLineIndent = 0
	}
	return f
}

func ruleName(name string) string {
	if name == "" {
		return "Normal"
	}
	return name
}
