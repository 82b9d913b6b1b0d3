package parser

import (
	"bytes"
	"math"
	"testing"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/fumiama/go-docx"
)

// buildTemplate writes a small thesis-like template and returns its bytes.
func buildTemplate(t *testing.T) []byte {
	t.Helper()
	f := docx.New().WithDefaultTheme().WithA4Page()

	f.AddParagraph().Justification("center").Style("Heading1").
		AddText("BAB I PENDAHULUAN").Bold().Size("28")
	f.AddParagraph().Style("Heading2").AddText("1.1 Latar Belakang").Bold()
	body := f.AddParagraph().Justification("both")
	body.AddText("[Tuliskan latar belakang penelitian]").Size("24").Font("Times New Roman", "Times New Roman", "Times New Roman", "")
	f.AddParagraph().AddText("Kalimat biasa.").Italic()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func parseDOCX(t *testing.T, data []byte) *DOCXDocument {
	t.Helper()
	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(data), "template.docx")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc.(*DOCXDocument)
}

func TestDOCXParser_ReadsParagraphs(t *testing.T) {
	doc := parseDOCX(t, buildTemplate(t))
	if doc.Title != "template" {
		t.Errorf("expected title %q, got %q", "template", doc.Title)
	}

	paras := doc.Paragraphs()
	if len(paras) != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", len(paras))
	}

	h := paras[0]
	if h.Text != "BAB I PENDAHULUAN" {
		t.Errorf("unexpected heading text %q", h.Text)
	}
	if h.StyleName != "Heading1" {
		t.Errorf("expected style Heading1, got %q", h.StyleName)
	}
	if h.OutlineLevel == nil || *h.OutlineLevel != 0 {
		t.Errorf("expected outline level 0, got %v", h.OutlineLevel)
	}
	if h.Format.Alignment != doctree.AlignCenter {
		t.Errorf("expected center alignment, got %q", h.Format.Alignment)
	}
	if !h.Format.IsBold() || h.Format.FontSize != 14 {
		t.Errorf("expected bold 14pt, got %+v", h.Format)
	}

	if paras[1].OutlineLevel == nil || *paras[1].OutlineLevel != 1 {
		t.Errorf("expected outline level 1, got %v", paras[1].OutlineLevel)
	}

	b := paras[2]
	if b.OutlineLevel != nil {
		t.Errorf("expected body paragraph, got level %d", *b.OutlineLevel)
	}
	if b.Format.Alignment != doctree.AlignJustify {
		t.Errorf("expected justify, got %q", b.Format.Alignment)
	}
	if b.Format.FontFamily != "Times New Roman" || b.Format.FontSize != 12 {
		t.Errorf("unexpected run format %+v", b.Format)
	}
	if b.Format.IsBold() {
		t.Error("body paragraph should not be bold")
	}

	if !paras[3].Format.IsItalic() {
		t.Errorf("expected italic, got %+v", paras[3].Format)
	}
}

func TestDOCXDocument_EditRoundTrip(t *testing.T) {
	doc := parseDOCX(t, buildTemplate(t))

	ed, err := doc.Editable(2)
	if err != nil {
		t.Fatalf("editable: %v", err)
	}
	if err := ed.ReplaceText("Penelitian ini membahas tata kelola data."); err != nil {
		t.Fatalf("replace: %v", err)
	}
	f := doctree.Format{
		Alignment:       doctree.AlignJustify,
		LineSpacing:     1.5,
		SpaceBefore:     12,
		FirstLineIndent: 1,
		LeftIndent:      0.5,
		FontFamily:      "Arial",
		FontSize:        11,
		Bold:            doctree.Bool(false),
	}
	if err := ed.ApplyStyle(f); err != nil {
		t.Fatalf("apply style: %v", err)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	again := parseDOCX(t, buf.Bytes())
	if again.Len() != 4 {
		t.Fatalf("expected 4 paragraphs after round trip, got %d", again.Len())
	}
	got := again.Paragraphs()[2]
	if got.Text != "Penelitian ini membahas tata kelola data." {
		t.Errorf("unexpected text %q", got.Text)
	}
	gf := got.Format
	if gf.Alignment != doctree.AlignJustify {
		t.Errorf("alignment: got %q", gf.Alignment)
	}
	if gf.LineSpacing != 1.5 {
		t.Errorf("line spacing: got %v", gf.LineSpacing)
	}
	if gf.SpaceBefore != 12 {
		t.Errorf("space before: got %v", gf.SpaceBefore)
	}
	if math.Abs(gf.FirstLineIndent-1) > 0.01 || math.Abs(gf.LeftIndent-0.5) > 0.01 {
		t.Errorf("indents: got first=%v left=%v", gf.FirstLineIndent, gf.LeftIndent)
	}
	if gf.FontFamily != "Arial" || gf.FontSize != 11 {
		t.Errorf("run format: got %+v", gf)
	}

	// Untouched paragraphs keep their text.
	if again.Paragraphs()[0].Text != "BAB I PENDAHULUAN" {
		t.Errorf("heading changed: %q", again.Paragraphs()[0].Text)
	}
}

func TestDOCXDocument_ReplaceKeepsRunFormatting(t *testing.T) {
	doc := parseDOCX(t, buildTemplate(t))
	ed, err := doc.Editable(0)
	if err != nil {
		t.Fatalf("editable: %v", err)
	}
	if err := ed.ReplaceText("BAB I TINJAUAN PUSTAKA"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got := doc.Paragraphs()[0]
	if got.Text != "BAB I TINJAUAN PUSTAKA" {
		t.Errorf("unexpected text %q", got.Text)
	}
	if !got.Format.IsBold() || got.Format.FontSize != 14 {
		t.Errorf("expected first run formatting to survive, got %+v", got.Format)
	}
}

func TestDOCXDocument_EditableOutOfRange(t *testing.T) {
	doc := parseDOCX(t, buildTemplate(t))
	for _, i := range []int{-1, 4} {
		if _, err := doc.Editable(i); err == nil {
			t.Errorf("index %d: expected error", i)
		}
	}
}

func TestDOCXParser_InvalidArchive(t *testing.T) {
	_, err := (&DOCXParser{}).Parse(bytes.NewReader([]byte("not a zip")), "bad.docx")
	if err == nil {
		t.Fatal("expected error for invalid archive")
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading 3", 3},
		{"HEADING6", 6},
		{"Normal", 0},
		{"", 0},
		{"Heading10", 0},
	}
	for _, tt := range tests {
		if got := docxHeadingLevel(tt.style); got != tt.want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", tt.style, got, tt.want)
		}
	}
}
