package doctree

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// MemoryDocument is a Document held entirely in memory. Parsers for formats
// without an editable container return it, and tests use it as a fake.
type MemoryDocument struct {
	mu      sync.Mutex
	Title   string
	paras   []Paragraph
	applied map[int]Format
	fail    map[int]error
}

// NewMemoryDocument builds a document from paragraphs, renumbering their indexes.
func NewMemoryDocument(title string, paras []Paragraph) *MemoryDocument {
	d := &MemoryDocument{
		Title:   title,
		paras:   make([]Paragraph, len(paras)),
		applied: make(map[int]Format),
	}
	for i, p := range paras {
		p.Index = i
		d.paras[i] = p
	}
	return d
}

// FromTexts builds a document of unstyled body paragraphs.
func FromTexts(texts ...string) *MemoryDocument {
	paras := make([]Paragraph, len(texts))
	for i, t := range texts {
		paras[i] = Paragraph{Text: t}
	}
	return NewMemoryDocument("", paras)
}

// FailOn makes every mutation of paragraph index return err.
func (d *MemoryDocument) FailOn(index int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail == nil {
		d.fail = make(map[int]error)
	}
	d.fail[index] = err
}

func (d *MemoryDocument) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.paras)
}

// Paragraphs returns a snapshot of the paragraph sequence.
func (d *MemoryDocument) Paragraphs() []Paragraph {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Paragraph, len(d.paras))
	copy(out, d.paras)
	return out
}

// Append adds a paragraph at the end.
func (d *MemoryDocument) Append(p Paragraph) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.Index = len(d.paras)
	d.paras = append(d.paras, p)
}

// Truncate drops every paragraph from n onwards.
func (d *MemoryDocument) Truncate(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < len(d.paras) {
		d.paras = d.paras[:n]
	}
}

// Text returns the current text of paragraph i, or "" when out of range.
func (d *MemoryDocument) Text(i int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.paras) {
		return ""
	}
	return d.paras[i].Text
}

// Applied returns the last format applied to paragraph i.
func (d *MemoryDocument) Applied(i int) (Format, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.applied[i]
	return f, ok
}

func (d *MemoryDocument) Editable(index int) (Editable, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.paras) {
		return nil, &IndexError{Index: index, Len: len(d.paras)}
	}
	return &memoryParagraph{doc: d, index: index}, nil
}

type memoryParagraph struct {
	doc   *MemoryDocument
	index int
}

func (p *memoryParagraph) ReplaceText(text string) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if err := p.doc.fail[p.index]; err != nil {
		return err
	}
	if p.index >= len(p.doc.paras) {
		return &IndexError{Index: p.index, Len: len(p.doc.paras)}
	}
	p.doc.paras[p.index].Text = text
	return nil
}

func (p *memoryParagraph) ApplyStyle(f Format) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if err := p.doc.fail[p.index]; err != nil {
		return err
	}
	if p.index >= len(p.doc.paras) {
		return &IndexError{Index: p.index, Len: len(p.doc.paras)}
	}
	p.doc.paras[p.index].Format = f
	p.doc.applied[p.index] = f
	return nil
}

// WriteTo renders the document as Markdown-flavoured text: headings get one
// '#' per outline level, paragraphs are separated by blank lines and empty
// paragraphs are dropped.
func (d *MemoryDocument) WriteTo(w io.Writer) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bw := bufio.NewWriter(w)
	var n int64
	first := true
	for _, p := range d.paras {
		t := strings.TrimSpace(p.Text)
		if t == "" {
			continue
		}
		if !first {
			m, err := bw.WriteString("\n\n")
			n += int64(m)
			if err != nil {
				return n, err
			}
		}
		first = false
		if p.OutlineLevel != nil {
			t = strings.Repeat("#", *p.OutlineLevel+1) + " " + t
		}
		m, err := bw.WriteString(t)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	if !first {
		m, err := bw.WriteString("\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
