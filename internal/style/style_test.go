package style

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/doctree"
)

func TestResolve_Defaults(t *testing.T) {
	e := New(nil)

	body := e.Resolve(&analyzer.Zone{Type: analyzer.ZoneContent})
	assert.Equal(t, "Times New Roman", body.FontFamily)
	assert.Equal(t, 12.0, body.FontSize)
	assert.Equal(t, doctree.AlignJustify, body.Alignment)
	assert.Equal(t, 1.5, body.LineSpacing)
	assert.Equal(t, 1.0, body.FirstLineIndent)
	assert.Equal(t, 0.0, body.LeftIndent)
	assert.False(t, body.IsBold())

	h := e.Resolve(&analyzer.Zone{Type: analyzer.ZoneHeader, Level: 0})
	assert.True(t, h.IsBold())
	assert.Equal(t, doctree.AlignCenter, h.Alignment)
	assert.Equal(t, 16.0, h.FontSize)

	deep := e.Resolve(&analyzer.Zone{Type: analyzer.ZoneHeader, Level: 9})
	assert.Equal(t, 12.0, deep.FontSize)
}

func TestResolve_RecordedFactsWin(t *testing.T) {
	rules := map[string]doctree.Format{
		"Heading 2": {FontFamily: "Arial", FontSize: 13, Bold: doctree.Bool(false), Alignment: doctree.AlignLeft},
		"Normal":    {FontFamily: "Calibri", LineSpacing: 2},
	}
	e := New(rules)

	h := e.Resolve(&analyzer.Zone{Type: analyzer.ZoneHeader, Level: 1, Style: analyzer.ZoneStyle{Name: "Heading 2"}})
	assert.Equal(t, "Arial", h.FontFamily)
	assert.Equal(t, 13.0, h.FontSize)
	assert.Equal(t, doctree.AlignLeft, h.Alignment)
	assert.True(t, h.IsBold(), "headers are always bold")
	assert.Equal(t, 0.5, h.LeftIndent)

	body := e.Resolve(&analyzer.Zone{
		Type:  analyzer.ZonePlaceholder,
		Level: 2,
		Style: analyzer.ZoneStyle{Format: doctree.Format{Alignment: doctree.AlignRight}},
	})
	assert.Equal(t, "Calibri", body.FontFamily)
	assert.Equal(t, 2.0, body.LineSpacing)
	assert.Equal(t, doctree.AlignRight, body.Alignment)
	assert.Equal(t, 1.0, body.LeftIndent)
	assert.Equal(t, 12.0, body.FontSize)
}

func TestAdjustForKind(t *testing.T) {
	e := New(nil)
	z := &analyzer.Zone{Type: analyzer.ZoneContent, Level: 1}

	tests := []struct {
		kind  content.Kind
		check func(t *testing.T, f doctree.Format)
	}{
		{content.KindChapterTitle, func(t *testing.T, f doctree.Format) {
			assert.True(t, f.IsBold())
			assert.Equal(t, doctree.AlignCenter, f.Alignment)
			assert.Equal(t, 14.0, f.FontSize)
		}},
		{content.KindSubsectionTitle, func(t *testing.T, f doctree.Format) {
			assert.True(t, f.IsBold())
			assert.Equal(t, doctree.AlignLeft, f.Alignment)
			assert.Equal(t, 12.0, f.FontSize)
		}},
		{content.KindListItem, func(t *testing.T, f doctree.Format) {
			assert.InDelta(t, 1.13, f.LeftIndent, 1e-9)
			assert.InDelta(t, -0.63, f.FirstLineIndent, 1e-9)
		}},
		{content.KindTable, func(t *testing.T, f doctree.Format) {
			assert.Equal(t, 10.0, f.FontSize)
		}},
		{content.KindEquation, func(t *testing.T, f doctree.Format) {
			assert.Equal(t, doctree.AlignCenter, f.Alignment)
		}},
		{content.KindParagraph, func(t *testing.T, f doctree.Format) {
			assert.Equal(t, e.Resolve(z), f)
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			tt.check(t, e.ResolveFor(z, tt.kind))
		})
	}
}

func TestCheckConsistency(t *testing.T) {
	clean := map[string]doctree.Format{
		"Normal":    {FontFamily: "Times New Roman", Alignment: doctree.AlignJustify, LineSpacing: 1.5},
		"Heading 1": {FontFamily: "Times New Roman", Alignment: doctree.AlignCenter, LineSpacing: 1},
	}
	assert.Empty(t, CheckConsistency(clean, DefaultLimits()))

	messy := map[string]doctree.Format{
		"A": {FontFamily: "Arial", Alignment: doctree.AlignLeft, LineSpacing: 1},
		"B": {FontFamily: "Calibri", Alignment: doctree.AlignRight, LineSpacing: 2.5},
		"C": {FontFamily: "Times New Roman", Alignment: doctree.AlignCenter},
		"D": {Alignment: doctree.AlignJustify},
	}
	w := CheckConsistency(messy, DefaultLimits())
	if assert.Len(t, w, 3) {
		assert.Contains(t, w[0], "3 fonts")
		assert.Contains(t, w[0], "Arial, Calibri, Times New Roman")
		assert.Contains(t, w[1], "4 paragraph alignments")
		assert.Contains(t, w[2], "line spacing")
	}
}
