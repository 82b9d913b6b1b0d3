package content

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	mdChapterRe = regexp.MustCompile(`(?i)^(?:BAB|Chapter)\s+([IVXLCDM]+|\d+)\b|^(\d+)[.\s]`)
	romanDigits = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
)

// FromMarkdown converts generated Markdown into items. Level-1 headings open
// chapters, deeper headings become subsection titles, and body blocks
// (paragraphs, lists, code, tables) become body items.
func FromMarkdown(src []byte) ([]Item, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var items []Item
	chapter, chapters, section := 1, 0, ""
	counts := make(map[string]int)

	nextID := func(base string) string {
		counts[base]++
		if counts[base] == 1 {
			return base
		}
		return fmt.Sprintf("%s_p%d", base, counts[base])
	}
	sectionID := func() string {
		if section == "" {
			return ChapterID(chapter) + "_body"
		}
		return ChapterID(chapter) + "_" + section
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := inlineText(node, src)
			if title == "" {
				continue
			}
			if node.Level == 1 {
				chapters++
				chapter = markdownChapter(title, chapters)
				section = ""
				items = append(items, NewItem(nextID(ChapterID(chapter)+"_title"), KindChapterTitle, title, 0, chapter, "title"))
				continue
			}
			section = slugKey(title)
			items = append(items, NewItem(nextID(sectionID()+"_title"), KindSubsectionTitle, title, node.Level-1, chapter, section))

		case *ast.List:
			for li := node.FirstChild(); li != nil; li = li.NextSibling() {
				if t := blockText(li, src); t != "" {
					items = append(items, NewItem(nextID(sectionID()), KindListItem, t, 2, chapter, section))
				}
			}

		case *extast.Table:
			items = append(items, NewItem(nextID(sectionID()), KindTable, tableText(node, src), 2, chapter, section))

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			t := linesText(n, src)
			kind := KindParagraph
			if strings.HasPrefix(t, "$$") {
				kind = KindEquation
			}
			if t != "" {
				items = append(items, NewItem(nextID(sectionID()), kind, t, 2, chapter, section))
			}

		default:
			t := blockText(n, src)
			if t == "" {
				continue
			}
			kind := KindParagraph
			if strings.HasPrefix(t, "$$") {
				kind = KindEquation
			}
			items = append(items, NewItem(nextID(sectionID()), kind, t, 2, chapter, section))
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyContent
	}
	return items, nil
}

// markdownChapter reads a chapter number from a heading, falling back to
// the heading's ordinal position.
func markdownChapter(title string, ordinal int) int {
	m := mdChapterRe.FindStringSubmatch(title)
	if m == nil {
		return ordinal
	}
	num := m[1]
	if num == "" {
		num = m[2]
	}
	if n, err := strconv.Atoi(num); err == nil && n > 0 {
		return n
	}
	if n := roman(strings.ToUpper(num)); n > 0 {
		return n
	}
	return ordinal
}

func roman(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanDigits[s[i]]
		if v == 0 {
			return 0
		}
		if i+1 < len(s) && romanDigits[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

func slugKey(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.Join(strings.Fields(stripNumber(title)), "_")), "-", "_")
}

var numberPrefixRe = regexp.MustCompile(`^[\d.]+\s+`)

func stripNumber(title string) string {
	return numberPrefixRe.ReplaceAllString(title, "")
}

// inlineText collects the text of inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return strings.TrimSpace(buf.String())
}

// blockText gets the text of a block node and its nested blocks.
func blockText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeInline {
		return inlineText(n, src)
	}
	var parts []string
	if n.FirstChild() == nil || n.FirstChild().Type() == ast.TypeInline {
		if t := inlineText(n, src); t != "" {
			parts = append(parts, t)
		}
	} else {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimSpace(buf.String())
}

// tableText renders a table back into pipe rows.
func tableText(t *extast.Table, src []byte) string {
	var rows []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, src))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
	}
	return strings.Join(rows, "\n")
}
