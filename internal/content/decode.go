package content

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"gopkg.in/yaml.v3"
)

// ErrEmptyContent is returned when a content document yields no items.
var ErrEmptyContent = errors.New("content: no items")

var chapterKeyRe = regexp.MustCompile(`\d+`)

type section struct {
	key   string
	value *yaml.Node
}

type chapter struct {
	key      string
	number   int
	sections []section
	text     *yaml.Node // chapter given as a single scalar
}

// Decode reads generated sections keyed by chapter and section:
//
//	chapter1:
//	  title: PENDAHULUAN
//	  latar_belakang: ...
//	chapter2: ...
//
// JSON input is accepted. Chapters are ordered naturally by key; sections
// keep their input order.
func Decode(r io.Reader) ([]Item, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyContent
		}
		return nil, fmt.Errorf("decode content: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode content: expected a mapping of chapters, got %s", nodeKind(doc))
	}

	chapters, err := readChapters(doc)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, ch := range chapters {
		items = append(items, chapterItems(ch)...)
	}
	if len(items) == 0 {
		return nil, ErrEmptyContent
	}
	return items, nil
}

func readChapters(doc *yaml.Node) ([]chapter, error) {
	var chapters []chapter
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i].Value, doc.Content[i+1]
		ch := chapter{key: key}
		switch val.Kind {
		case yaml.MappingNode:
			for j := 0; j+1 < len(val.Content); j += 2 {
				ch.sections = append(ch.sections, section{key: val.Content[j].Value, value: val.Content[j+1]})
			}
		case yaml.ScalarNode, yaml.SequenceNode:
			ch.text = val
		default:
			return nil, fmt.Errorf("decode content: chapter %q: unexpected %s", key, nodeKind(val))
		}
		chapters = append(chapters, ch)
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return natural.Less(chapters[i].key, chapters[j].key)
	})
	for i := range chapters {
		chapters[i].number = i + 1
		if m := chapterKeyRe.FindString(chapters[i].key); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				chapters[i].number = n
			}
		}
	}
	return chapters, nil
}

func chapterItems(ch chapter) []Item {
	n := ch.number
	prefix := ChapterID(n)
	var items []Item

	if ch.text != nil {
		return append(items, bodyItems(prefix+"_body", nodeText(ch.text), 1, n, "")...)
	}

	for _, s := range ch.sections {
		key := strings.ToLower(strings.TrimSpace(s.key))
		text := nodeText(s.value)
		if strings.TrimSpace(text) == "" {
			continue
		}
		id := prefix + "_" + slug.Make(key)
		switch {
		case key == "title" || key == "judul":
			items = append(items, NewItem(prefix+"_title", KindChapterTitle, text, 0, n, key))
		case strings.HasSuffix(key, "_title") || strings.HasSuffix(key, "_judul"):
			items = append(items, NewItem(id, KindSubsectionTitle, text, 1, n, key))
		default:
			items = append(items, bodyItems(id, text, 2, n, key)...)
		}
	}
	return items
}

func bodyItems(id, text string, level, chapter int, section string) []Item {
	blocks := Blocks(text)
	items := make([]Item, 0, len(blocks))
	for i, b := range blocks {
		itemID := id
		if len(blocks) > 1 {
			itemID = fmt.Sprintf("%s_p%d", id, i+1)
		}
		items = append(items, NewItem(itemID, b.Kind, b.Text, level, chapter, section))
	}
	return items
}

// nodeText flattens a scalar or a sequence of scalars into text; sequence
// entries become separate paragraphs.
func nodeText(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if t := strings.TrimSpace(nodeText(c)); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n\n")
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeText(n.Alias)
		}
	}
	return ""
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "document"
}
