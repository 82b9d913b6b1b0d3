package analyzer

import (
	"fmt"
	"sort"

	"github.com/dgallion1/docfill/internal/doctree"
)

// ZoneType classifies a unit of template structure.
type ZoneType string

const (
	ZoneHeader      ZoneType = "header"
	ZoneContent     ZoneType = "content"
	ZonePlaceholder ZoneType = "placeholder"
	ZoneStructural  ZoneType = "structural"
	ZoneFrontMatter ZoneType = "front_matter"
	ZoneBackMatter  ZoneType = "back_matter"
)

// Category names a group of academic pattern matches.
type Category string

const (
	CategoryChapters     Category = "chapters"
	CategorySubsections  Category = "subsections"
	CategoryPlaceholders Category = "placeholders"
	CategoryFrontMatter  Category = "front_matter"
	CategoryBackMatter   Category = "back_matter"
)

// Categories lists every pattern category in classification priority order.
var Categories = []Category{
	CategoryChapters,
	CategorySubsections,
	CategoryFrontMatter,
	CategoryBackMatter,
	CategoryPlaceholders,
}

// ZoneStyle is the style metadata attached to a zone.
type ZoneStyle struct {
	Name    string         `json:"name,omitempty"`
	Number  string         `json:"number,omitempty"`  // detected heading number, e.g. "I" or "1.2"
	Chapter int            `json:"chapter,omitempty"` // numeric chapter for chapter headings
	Title   string         `json:"title,omitempty"`   // heading text with numbering stripped
	Format  doctree.Format `json:"format,omitempty"`
}

// PlaceholderInfo describes what a placeholder zone expects.
type PlaceholderInfo struct {
	Kind           string `json:"kind"`
	ContentType    string `json:"content_type"`
	EstimatedWords int    `json:"estimated_words"`
}

// Zone is a classified unit of document structure.
type Zone struct {
	ID          string           `json:"id"`
	Type        ZoneType         `json:"type"`
	Start       int              `json:"start"`
	End         int              `json:"end"`
	Text        string           `json:"text"`
	Style       ZoneStyle        `json:"style"`
	Level       int              `json:"level"`
	Parent      string           `json:"parent,omitempty"`
	Children    []string         `json:"children,omitempty"`
	Confidence  float64          `json:"confidence"`
	Rule        string           `json:"rule,omitempty"`
	Section     string           `json:"section,omitempty"`
	Placeholder *PlaceholderInfo `json:"placeholder,omitempty"`
}

// ZoneID derives the stable zone id from its first paragraph index.
func ZoneID(paragraph int) string {
	return fmt.Sprintf("para_%d", paragraph)
}

// PatternMatch is one academic pattern recognised on a zone.
type PatternMatch struct {
	Category   Category          `json:"category"`
	ZoneID     string            `json:"zone_id"`
	Pattern    string            `json:"pattern"`
	Fields     map[string]string `json:"fields,omitempty"`
	Confidence float64           `json:"confidence"`
}

// TemplateStructure is the result of analysing one document version. It is
// never patched in place: re-analyse after structural edits.
type TemplateStructure struct {
	Zones          map[string]*Zone            `json:"zones"`
	Order          []string                    `json:"order"`
	Hierarchy      map[string][]string         `json:"hierarchy"`
	StyleRules     map[string]doctree.Format   `json:"style_rules"`
	Patterns       map[Category][]PatternMatch `json:"patterns"`
	Confidence     float64                     `json:"confidence"`
	ParagraphCount int                         `json:"paragraph_count"`
}

// Zone returns the zone with the given id, or nil.
func (s *TemplateStructure) Zone(id string) *Zone {
	return s.Zones[id]
}

// InOrder returns zones in document order.
func (s *TemplateStructure) InOrder() []*Zone {
	out := make([]*Zone, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.Zones[id])
	}
	return out
}

// ZonesOfType returns zones of any of the given types, in document order.
func (s *TemplateStructure) ZonesOfType(types ...ZoneType) []*Zone {
	var out []*Zone
	for _, z := range s.InOrder() {
		for _, t := range types {
			if z.Type == t {
				out = append(out, z)
				break
			}
		}
	}
	return out
}

// CountType counts zones of type t.
func (s *TemplateStructure) CountType(t ZoneType) int {
	n := 0
	for _, z := range s.Zones {
		if z.Type == t {
			n++
		}
	}
	return n
}

// Matches returns the recognised patterns of a category.
func (s *TemplateStructure) Matches(c Category) []PatternMatch {
	return s.Patterns[c]
}

// Ancestors returns the ids of z's ancestors, nearest first.
func (s *TemplateStructure) Ancestors(id string) []string {
	var out []string
	z := s.Zones[id]
	for z != nil && z.Parent != "" {
		out = append(out, z.Parent)
		z = s.Zones[z.Parent]
	}
	return out
}

// Depth returns the number of ancestors of a zone.
func (s *TemplateStructure) Depth(id string) int {
	return len(s.Ancestors(id))
}

// ChapterOf returns the chapter number governing zone id: the chapter of the
// nearest chapter heading at or above it, or 0.
func (s *TemplateStructure) ChapterOf(id string) int {
	if z := s.Zones[id]; z != nil && z.Style.Chapter > 0 {
		return z.Style.Chapter
	}
	for _, a := range s.Ancestors(id) {
		if z := s.Zones[a]; z != nil && z.Style.Chapter > 0 {
			return z.Style.Chapter
		}
	}
	return 0
}

// ChapterSpan is the paragraph range covered by a detected chapter.
type ChapterSpan struct {
	Chapter int
	ZoneID  string
	Start   int
	End     int // exclusive
}

// ChapterSpans returns the detected chapters in document order, each
// extending to the next detected chapter or the end of the document.
func (s *TemplateStructure) ChapterSpans() []ChapterSpan {
	var spans []ChapterSpan
	for _, m := range s.Patterns[CategoryChapters] {
		z := s.Zones[m.ZoneID]
		if z == nil || z.Type != ZoneHeader || z.Style.Chapter == 0 {
			continue
		}
		spans = append(spans, ChapterSpan{Chapter: z.Style.Chapter, ZoneID: z.ID, Start: z.Start})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	for i := range spans {
		if i+1 < len(spans) {
			spans[i].End = spans[i+1].Start
		} else {
			spans[i].End = s.ParagraphCount
		}
	}
	return spans
}
