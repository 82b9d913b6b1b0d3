package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings carry their
// outline level; every other top-level block (and every list item) becomes
// one body paragraph.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var paras []doctree.Paragraph
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			t := extractText(node, src)
			if t == "" {
				continue
			}
			paras = append(paras, doctree.Paragraph{
				Text:         t,
				StyleName:    fmt.Sprintf("Heading%d", node.Level),
				OutlineLevel: doctree.Level(node.Level - 1),
			})
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := extractText(item, src); t != "" {
					paras = append(paras, doctree.Paragraph{Text: t, StyleName: "List Paragraph"})
				}
			}
		default:
			if t := extractText(n, src); t != "" {
				paras = append(paras, doctree.Paragraph{Text: t})
			}
		}
	}

	return doctree.NewMemoryDocument(baseTitle(filename), paras), nil
}

// extractText gets the text content of a goldmark AST node. Code blocks
// keep their raw lines; everything else is rebuilt from inline text.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeText(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeText(buf *bytes.Buffer, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Text:
		buf.Write(node.Segment.Value(src))
		if node.HardLineBreak() || node.SoftLineBreak() {
			buf.WriteByte('\n')
		}
		return
	case *ast.String:
		buf.Write(node.Value)
		return
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		writeText(buf, c, src)
	}
}
