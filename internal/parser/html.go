package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. h1-h6 become headings and each text
// block (p, li, td, blockquote, pre) becomes one paragraph.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	var paras []doctree.Paragraph
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					paras = append(paras, doctree.Paragraph{
						Text:         t,
						StyleName:    fmt.Sprintf("Heading%d", level),
						OutlineLevel: doctree.Level(level - 1),
						Format:       htmlFormat(n),
					})
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				if t := textContent(n); t != "" {
					para := doctree.Paragraph{Text: t, Format: htmlFormat(n)}
					if n.Data == "li" {
						para.StyleName = "List Paragraph"
					}
					paras = append(paras, para)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return doctree.NewMemoryDocument(title, paras), nil
}

// htmlFormat reads the alignment of an element from its align attribute or
// an inline text-align declaration.
func htmlFormat(n *html.Node) doctree.Format {
	var f doctree.Format
	for _, a := range n.Attr {
		switch a.Key {
		case "align":
			f.Alignment = cssAlignment(a.Val)
		case "style":
			for _, decl := range strings.Split(a.Val, ";") {
				k, v, ok := strings.Cut(decl, ":")
				if ok && strings.EqualFold(strings.TrimSpace(k), "text-align") {
					f.Alignment = cssAlignment(v)
				}
			}
		}
	}
	return f
}

func cssAlignment(v string) doctree.Alignment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center":
		return doctree.AlignCenter
	case "right":
		return doctree.AlignRight
	case "justify":
		return doctree.AlignJustify
	case "left":
		return doctree.AlignLeft
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
