package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/fumiama/go-docx"
)

const (
	twipsPerCM     = 567.0
	twipsPerPoint  = 20.0
	lineUnitsAuto  = 240.0
	halfPointsUnit = 2.0
)

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*([1-9])$`)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (doctree.Document, error) {
	// go-docx needs a ReaderAt and the archive size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return NewDOCXDocument(doc, baseTitle(filename)), nil
}

// DOCXDocument is an editable view over the body paragraphs of a .docx
// file. Paragraphs inside tables are not addressed.
type DOCXDocument struct {
	mu    sync.Mutex
	Title string
	file  *docx.Docx
	paras []*docx.Paragraph
}

// NewDOCXDocument indexes the top-level paragraphs of doc.
func NewDOCXDocument(doc *docx.Docx, title string) *DOCXDocument {
	d := &DOCXDocument{Title: title, file: doc}
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			d.paras = append(d.paras, para)
		}
	}
	return d
}

func (d *DOCXDocument) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.paras)
}

func (d *DOCXDocument) Paragraphs() []doctree.Paragraph {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]doctree.Paragraph, len(d.paras))
	for i, para := range d.paras {
		style := docxStyleName(para)
		out[i] = doctree.Paragraph{
			Index:     i,
			Text:      docxParagraphText(para),
			StyleName: style,
			Format:    docxFormat(para),
		}
		if level := docxHeadingLevel(style); level > 0 {
			out[i].OutlineLevel = doctree.Level(level - 1)
		}
	}
	return out
}

func (d *DOCXDocument) Editable(index int) (doctree.Editable, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.paras) {
		return nil, &doctree.IndexError{Index: index, Len: len(d.paras)}
	}
	return &docxParagraph{doc: d, para: d.paras[index]}, nil
}

// WriteTo serialises the (possibly edited) archive.
func (d *DOCXDocument) WriteTo(w io.Writer) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.WriteTo(w)
}

type docxParagraph struct {
	doc  *DOCXDocument
	para *docx.Paragraph
}

// ReplaceText drops every child of the paragraph and writes text as a single
// run carrying the formatting of the first original run.
func (p *docxParagraph) ReplaceText(text string) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()

	var props *docx.RunProperties
	if r := firstRun(p.para); r != nil && r.RunProperties != nil {
		cp := *r.RunProperties
		props = &cp
	}
	p.para.Children = p.para.Children[:0]
	run := p.para.AddText(text)
	if props != nil {
		run.RunProperties = props
	}
	return nil
}

func (p *docxParagraph) ApplyStyle(f doctree.Format) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()

	if p.para.Properties == nil {
		p.para.Properties = &docx.ParagraphProperties{}
	}
	pp := p.para.Properties
	if jc := docxJustification(f.Alignment); jc != "" {
		pp.Justification = &docx.Justification{Val: jc}
	}
	if f.LineSpacing > 0 || f.SpaceBefore > 0 {
		if pp.Spacing == nil {
			pp.Spacing = &docx.Spacing{}
		}
		if f.LineSpacing > 0 {
			pp.Spacing.Line = int(math.Round(f.LineSpacing * lineUnitsAuto))
			pp.Spacing.LineRule = "auto"
		}
		if f.SpaceBefore > 0 {
			pp.Spacing.Before = int(math.Round(f.SpaceBefore * twipsPerPoint))
		}
	}
	if f.LeftIndent != 0 || f.FirstLineIndent != 0 {
		if pp.Ind == nil {
			pp.Ind = &docx.Ind{}
		}
		pp.Ind.Left = int(math.Round(f.LeftIndent * twipsPerCM))
		pp.Ind.FirstLine, pp.Ind.Hanging = 0, 0
		if f.FirstLineIndent > 0 {
			pp.Ind.FirstLine = int(math.Round(f.FirstLineIndent * twipsPerCM))
		} else if f.FirstLineIndent < 0 {
			pp.Ind.Hanging = int(math.Round(-f.FirstLineIndent * twipsPerCM))
		}
	}

	for _, child := range p.para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		if run.RunProperties == nil {
			run.RunProperties = &docx.RunProperties{}
		}
		applyRunFormat(run.RunProperties, f)
	}
	return nil
}

func applyRunFormat(rp *docx.RunProperties, f doctree.Format) {
	if f.FontFamily != "" {
		rp.Fonts = &docx.RunFonts{ASCII: f.FontFamily, EastAsia: f.FontFamily, HAnsi: f.FontFamily}
	}
	if f.FontSize > 0 {
		rp.Size = &docx.Size{Val: strconv.Itoa(int(math.Round(f.FontSize * halfPointsUnit)))}
	}
	if f.Bold != nil {
		if *f.Bold {
			rp.Bold = &docx.Bold{}
		} else {
			rp.Bold = nil
		}
	}
	if f.Italic != nil {
		if *f.Italic {
			rp.Italic = &docx.Italic{}
		} else {
			rp.Italic = nil
		}
	}
}

func docxStyleName(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel returns 1-6 for "Heading1" / "heading 1" style ids, 0 otherwise.
func docxHeadingLevel(style string) int {
	m := headingStyleRe.FindStringSubmatch(strings.TrimSpace(style))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			switch c := rc.(type) {
			case *docx.Text:
				buf.WriteString(c.Text)
			case *docx.Tab:
				buf.WriteByte('\t')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func firstRun(para *docx.Paragraph) *docx.Run {
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			return run
		}
	}
	return nil
}

func docxFormat(para *docx.Paragraph) doctree.Format {
	var f doctree.Format
	if pp := para.Properties; pp != nil {
		if pp.Justification != nil {
			f.Alignment = docxAlignment(pp.Justification.Val)
		}
		if sp := pp.Spacing; sp != nil {
			if sp.Line > 0 && (sp.LineRule == "" || sp.LineRule == "auto") {
				f.LineSpacing = float64(sp.Line) / lineUnitsAuto
			}
			if sp.Before > 0 {
				f.SpaceBefore = float64(sp.Before) / twipsPerPoint
			}
		}
		if ind := pp.Ind; ind != nil {
			f.LeftIndent = float64(ind.Left) / twipsPerCM
			switch {
			case ind.FirstLine > 0:
				f.FirstLineIndent = float64(ind.FirstLine) / twipsPerCM
			case ind.Hanging > 0:
				f.FirstLineIndent = -float64(ind.Hanging) / twipsPerCM
			}
		}
	}

	if run := firstRun(para); run != nil && run.RunProperties != nil {
		rp := run.RunProperties
		if rp.Fonts != nil {
			f.FontFamily = rp.Fonts.ASCII
		}
		if rp.Size != nil {
			if hp, err := strconv.ParseFloat(rp.Size.Val, 64); err == nil {
				f.FontSize = hp / halfPointsUnit
			}
		}
		if rp.Bold != nil {
			f.Bold = doctree.Bool(true)
		}
		if rp.Italic != nil {
			f.Italic = doctree.Bool(true)
		}
	}
	return f
}

func docxAlignment(val string) doctree.Alignment {
	switch strings.ToLower(val) {
	case "both", "distribute":
		return doctree.AlignJustify
	case "center":
		return doctree.AlignCenter
	case "right", "end":
		return doctree.AlignRight
	case "left", "start":
		return doctree.AlignLeft
	}
	return ""
}

func docxJustification(a doctree.Alignment) string {
	switch a {
	case doctree.AlignJustify:
		return "both"
	case doctree.AlignCenter:
		return "center"
	case doctree.AlignRight:
		return "right"
	case doctree.AlignLeft:
		return "left"
	}
	return ""
}
