package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docfill/internal/doctree"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if title := doc.(*doctree.MemoryDocument).Title; title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", title)
	}
	paras := doc.Paragraphs()
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if paras[i].Text != w {
			t.Errorf("paragraph[%d]: expected %q, got %q", i, w, paras[i].Text)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title := doc.(*doctree.MemoryDocument).Title; title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", title)
	}
	if doc.Len() != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", doc.Len())
	}
}

func TestTextParser_SingleLine(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paras := doc.Paragraphs()
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	if paras[0].Text != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", paras[0].Text)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", doc.Len())
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", doc.Len())
	}
}

func TestTextParser_Editable(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("BAB I\n\n[Isi bab]"), "t.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ed, err := doc.Editable(1)
	if err != nil {
		t.Fatalf("editable: %v", err)
	}
	if err := ed.ReplaceText("Latar belakang."); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := doc.Paragraphs()[1].Text; got != "Latar belakang." {
		t.Errorf("expected replaced text, got %q", got)
	}
	if _, err := doc.Editable(2); err == nil {
		t.Error("expected index error")
	}
}
