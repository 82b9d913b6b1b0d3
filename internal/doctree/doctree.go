package doctree

import "fmt"

// Alignment is a paragraph justification value.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// Format holds paragraph and run formatting facts. Zero values mean "not recorded".
type Format struct {
	FontFamily      string    `json:"font_family,omitempty" yaml:"font_family,omitempty"`
	FontSize        float64   `json:"font_size,omitempty" yaml:"font_size,omitempty"` // points
	Bold            *bool     `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic          *bool     `json:"italic,omitempty" yaml:"italic,omitempty"`
	Alignment       Alignment `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	LineSpacing     float64   `json:"line_spacing,omitempty" yaml:"line_spacing,omitempty"` // multiple of single
	SpaceBefore     float64   `json:"space_before,omitempty" yaml:"space_before,omitempty"` // points
	SpaceAfter      float64   `json:"space_after,omitempty" yaml:"space_after,omitempty"`   // points
	FirstLineIndent float64   `json:"first_line_indent,omitempty" yaml:"first_line_indent,omitempty"` // cm
	LeftIndent      float64   `json:"left_indent,omitempty" yaml:"left_indent,omitempty"`             // cm
}

// IsEmpty reports whether no formatting fact is recorded.
func (f Format) IsEmpty() bool {
	return f == Format{}
}

// Fill copies every fact recorded in other that is not yet recorded in f.
func (f *Format) Fill(other Format) {
	if f.FontFamily == "" {
		f.FontFamily = other.FontFamily
	}
	if f.FontSize == 0 {
		f.FontSize = other.FontSize
	}
	if f.Bold == nil && other.Bold != nil {
		f.Bold = Bool(*other.Bold)
	}
	if f.Italic == nil && other.Italic != nil {
		f.Italic = Bool(*other.Italic)
	}
	if f.Alignment == "" {
		f.Alignment = other.Alignment
	}
	if f.LineSpacing == 0 {
		f.LineSpacing = other.LineSpacing
	}
	if f.SpaceBefore == 0 {
		f.SpaceBefore = other.SpaceBefore
	}
	if f.SpaceAfter == 0 {
		f.SpaceAfter = other.SpaceAfter
	}
	if f.FirstLineIndent == 0 {
		f.FirstLineIndent = other.FirstLineIndent
	}
	if f.LeftIndent == 0 {
		f.LeftIndent = other.LeftIndent
	}
}

// Overlay returns base with every fact recorded in top replacing base's value.
func Overlay(base, top Format) Format {
	out := top
	out.Fill(base)
	return out
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// IsBold reports whether Bold is recorded and true.
func (f Format) IsBold() bool { return f.Bold != nil && *f.Bold }

// IsItalic reports whether Italic is recorded and true.
func (f Format) IsItalic() bool { return f.Italic != nil && *f.Italic }

// Paragraph is one block of a document as seen by the analyzer.
type Paragraph struct {
	Index        int    // Position in the document's paragraph sequence
	Text         string // Plain text of all runs
	StyleName    string // Named paragraph style, empty if none
	OutlineLevel *int   // 0-based heading depth; nil for body text
	Format       Format // Formatting observed directly on the paragraph
}

// Level returns a pointer to n, for building OutlineLevel values.
func Level(n int) *int { return &n }

// Editable is the mutation capability of a single paragraph.
type Editable interface {
	ReplaceText(text string) error
	ApplyStyle(f Format) error
}

// Document is a live, index-addressable paragraph sequence.
type Document interface {
	Len() int
	Paragraphs() []Paragraph
	Editable(index int) (Editable, error)
}

// IndexError reports a paragraph index outside the document.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("paragraph %d out of range (document has %d)", e.Index, e.Len)
}
