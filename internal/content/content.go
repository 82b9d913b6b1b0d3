package content

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind is the shape of a generated content item.
type Kind string

const (
	KindChapterTitle    Kind = "chapter_title"
	KindSubsectionTitle Kind = "subsection_title"
	KindParagraph       Kind = "paragraph"
	KindListItem        Kind = "list_item"
	KindTable           Kind = "table"
	KindEquation        Kind = "equation"
)

// IsTitle reports whether k is a heading kind.
func (k Kind) IsTitle() bool {
	return k == KindChapterTitle || k == KindSubsectionTitle
}

// Metadata carries the logical position and size of an item.
type Metadata struct {
	Chapter int    `json:"chapter" yaml:"chapter"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	Words   int    `json:"words" yaml:"words"`
	Chars   int    `json:"chars" yaml:"chars"`
}

// Item is one externally produced piece of text awaiting placement.
type Item struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	Text     string   `json:"text" yaml:"text"`
	Level    int      `json:"level" yaml:"level"`
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"` // logical chapter id
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// Len returns the character length of the item text.
func (it Item) Len() int {
	return utf8.RuneCountInString(it.Text)
}

// ChapterID is the logical parent id for chapter n.
func ChapterID(n int) string {
	return fmt.Sprintf("chapter%d", n)
}

// NewItem builds an item and fills its size metadata.
func NewItem(id string, kind Kind, text string, level, chapter int, section string) Item {
	text = strings.TrimSpace(text)
	return Item{
		ID:     id,
		Kind:   kind,
		Text:   text,
		Level:  level,
		Parent: ChapterID(chapter),
		Metadata: Metadata{
			Chapter: chapter,
			Section: section,
			Words:   CountWords(text),
			Chars:   utf8.RuneCountInString(text),
		},
	}
}

// ByChapter orders items by declared chapter number, keeping input order
// within a chapter.
func ByChapter(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metadata.Chapter < out[j].Metadata.Chapter
	})
	return out
}

// Stats summarises a set of items.
type Stats struct {
	Items    int          `json:"items"`
	Chapters int          `json:"chapters"`
	Words    int          `json:"words"`
	Tokens   int          `json:"tokens"`
	ByKind   map[Kind]int `json:"by_kind"`
}

// Summarize counts items, chapters, words and estimated tokens.
func Summarize(items []Item) Stats {
	s := Stats{Items: len(items), ByKind: make(map[Kind]int)}
	chapters := make(map[int]bool)
	for _, it := range items {
		chapters[it.Metadata.Chapter] = true
		s.ByKind[it.Kind]++
		s.Words += it.Metadata.Words
		s.Tokens += EstimateTokens(it.Text)
	}
	s.Chapters = len(chapters)
	return s
}
