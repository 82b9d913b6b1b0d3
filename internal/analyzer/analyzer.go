package analyzer

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docfill/internal/doctree"
)

// ErrNoParagraphs is returned when there is nothing to analyse.
var ErrNoParagraphs = errors.New("analyzer: document has no non-empty paragraphs")

// Analyzer turns a paragraph sequence into a TemplateStructure. It holds no
// mutable state and may be shared.
type Analyzer struct {
	lib   *Library
	rules []rule
}

// New returns an Analyzer for lib. A nil lib selects DefaultLibrary.
func New(lib *Library) *Analyzer {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &Analyzer{lib: lib, rules: buildRules(lib)}
}

// Library returns the pattern library in use.
func (a *Analyzer) Library() *Library { return a.lib }

// Analyze classifies paragraphs with the default pattern library.
func Analyze(paragraphs []doctree.Paragraph) (*TemplateStructure, error) {
	return New(nil).Analyze(paragraphs)
}

type candidate struct {
	para  doctree.Paragraph
	text  string
	class classification
}

// Analyze runs every pass over paragraphs. The result depends only on the
// paragraphs and the library.
func (a *Analyzer) Analyze(paragraphs []doctree.Paragraph) (*TemplateStructure, error) {
	c := newClassifier(a.lib, a.rules)

	cands := make([]candidate, 0, len(paragraphs))
	for i, p := range paragraphs {
		text := norm.NFC.String(strings.TrimSpace(p.Text))
		if text == "" {
			continue
		}
		p.Index = i
		cands = append(cands, candidate{para: p, text: text, class: c.classify(p, text)})
	}
	if len(cands) == 0 {
		return nil, ErrNoParagraphs
	}

	st := &TemplateStructure{
		Zones:          make(map[string]*Zone, len(cands)),
		Patterns:       make(map[Category][]PatternMatch),
		ParagraphCount: len(paragraphs),
	}

	zones := a.buildZones(cands)
	for _, z := range zones {
		st.Zones[z.ID] = z
		st.Order = append(st.Order, z.ID)
	}
	st.Hierarchy = BuildHierarchy(zones)
	a.annotate(st, zones)
	a.recognize(st, zones)
	st.StyleRules = ExtractStyleRules(paragraphs)
	st.Confidence = ScoreConfidence(st, a.lib.Confidence)
	return st, nil
}

// buildZones creates one zone per candidate, merging a bare chapter number
// with the title line that follows it, and assigns hierarchy levels.
func (a *Analyzer) buildZones(cands []candidate) []*Zone {
	zones := make([]*Zone, 0, len(cands))
	lastHeader := -1

	for i := 0; i < len(cands); i++ {
		cd := cands[i]
		z := &Zone{
			ID:         ZoneID(cd.para.Index),
			Type:       cd.class.zoneType(),
			Start:      cd.para.Index,
			End:        cd.para.Index,
			Text:       cd.text,
			Confidence: a.lib.DefaultConfidence,
			Style: ZoneStyle{
				Name:   cd.para.StyleName,
				Format: cd.para.Format,
			},
		}
		if r := cd.class.rule; r != nil {
			z.Rule = r.name
			z.Confidence = r.confidence
		}

		if z.Type == ZoneHeader {
			a.headerMetadata(z, cd)
			if cd.class.rule.pattern != nil && cd.class.rule.pattern.MergeNext && z.Style.Title == "" && i+1 < len(cands) {
				if next := cands[i+1]; a.mergeable(cd, next) {
					z.End = next.para.Index
					z.Text = cd.text + " " + next.text
					z.Style.Title = next.text
					if z.Style.Chapter == 0 {
						z.Style.Chapter = a.lib.standardChapter(next.text)
					}
					i++
				}
			}
			if z.Style.Title == "" {
				z.Style.Title = z.Text
			}
		}

		switch {
		case cd.para.OutlineLevel != nil:
			z.Level = max(*cd.para.OutlineLevel, 0)
		case z.Type == ZoneHeader && cd.class.rule.level != nil:
			z.Level = *cd.class.rule.level
		case z.Type == ZoneHeader:
			z.Level = 0
		case lastHeader >= 0:
			z.Level = zones[lastHeader].Level + 1
		default:
			z.Level = 0
		}
		if z.Type == ZoneHeader {
			lastHeader = len(zones)
		}
		zones = append(zones, z)
	}
	return zones
}

// mergeable reports whether next is the title line of a bare chapter heading.
func (a *Analyzer) mergeable(bare, next candidate) bool {
	if next.class.fields["number"] != "" {
		return false
	}
	switch next.class.zoneType() {
	case ZoneHeader:
	case ZoneContent:
		if a.lib.Caps.MaxWords > 0 && len(strings.Fields(next.text)) > a.lib.Caps.MaxWords {
			return false
		}
		if strings.HasSuffix(next.text, ".") {
			return false
		}
	default:
		return false
	}
	bl, nl := bare.para.OutlineLevel, next.para.OutlineLevel
	return bl == nil || nl == nil || *bl == *nl
}

// headerMetadata fills number, chapter and title for a header zone.
func (a *Analyzer) headerMetadata(z *Zone, cd candidate) {
	fields := cd.class.fields
	z.Style.Number = fields["number"]
	z.Style.Title = fields["title"]

	if cd.class.rule.category == CategoryChapters {
		z.Style.Chapter = chapterNumber(z.Style.Number)
		if z.Style.Chapter == 0 {
			z.Style.Chapter = a.lib.standardChapter(cd.text)
		}
	}
	if z.Style.Title == "" && !(cd.class.rule.pattern != nil && cd.class.rule.pattern.MergeNext) {
		z.Style.Title = a.stripNumbering(cd.text)
	}
}

// stripNumbering removes a numbering prefix recognised by any header pattern.
func (a *Analyzer) stripNumbering(text string) string {
	for _, group := range [][]*Pattern{a.lib.Chapters, a.lib.Subsections} {
		for _, p := range group {
			if fields, ok := p.Match(text); ok && fields["title"] != "" {
				return fields["title"]
			}
		}
	}
	return text
}

// annotate derives section types and placeholder expectations, which depend
// on the finished hierarchy.
func (a *Analyzer) annotate(st *TemplateStructure, zones []*Zone) {
	for _, z := range zones {
		if z.Type == ZoneHeader && z.Level > 0 {
			z.Section = a.lib.sectionType(z.Style.Title)
			continue
		}
		if p := st.Zones[z.Parent]; p != nil {
			z.Section = p.Section
		}
	}

	for _, z := range zones {
		if z.Type != ZonePlaceholder {
			continue
		}
		context := z.Text
		if p := st.Zones[z.Parent]; p != nil {
			context += " " + p.Style.Title
		}
		z.Placeholder = &PlaceholderInfo{
			Kind:           a.lib.placeholderKind(z.Text),
			ContentType:    a.lib.contentType(z.Text),
			EstimatedWords: a.estimateWords(z.Text, context),
		}
	}
}

func (a *Analyzer) estimateWords(text, context string) int {
	for _, p := range a.lib.Placeholders {
		fields, ok := p.Match(text)
		if !ok {
			continue
		}
		lo, errLo := strconv.Atoi(fields["min"])
		hi, errHi := strconv.Atoi(fields["max"])
		if errLo == nil && errHi == nil {
			return (lo + hi) / 2
		}
	}
	return a.lib.estimatedWords(context)
}

// recognize records, for every zone and category, the best academic pattern match.
func (a *Analyzer) recognize(st *TemplateStructure, zones []*Zone) {
	byCategory := map[Category][]*Pattern{
		CategoryChapters:     a.lib.Chapters,
		CategorySubsections:  a.lib.Subsections,
		CategoryFrontMatter:  a.lib.FrontMatter,
		CategoryBackMatter:   a.lib.BackMatter,
		CategoryPlaceholders: a.lib.Placeholders,
	}
	for _, z := range zones {
		for _, cat := range Categories {
			p, fields, ok := matchCategory(byCategory[cat], z.Text)
			if !ok {
				continue
			}
			m := PatternMatch{
				Category:   cat,
				ZoneID:     z.ID,
				Pattern:    p.Name,
				Fields:     fields,
				Confidence: p.Confidence,
			}
			switch cat {
			case CategoryChapters:
				m.Fields = withField(m.Fields, "title", z.Style.Title)
				if z.Style.Chapter > 0 {
					m.Fields = withField(m.Fields, "chapter_num", strconv.Itoa(z.Style.Chapter))
				}
				if std := a.lib.standardChapter(z.Text); std > 0 {
					m.Fields = withField(m.Fields, "standard_chapter", strconv.Itoa(std))
				}
			case CategorySubsections:
				m.Fields = withField(m.Fields, "section_type", a.lib.sectionType(z.Text))
			case CategoryPlaceholders:
				m.Fields = withField(m.Fields, "kind", a.lib.placeholderKind(z.Text))
			}
			st.Patterns[cat] = append(st.Patterns[cat], m)
		}
	}
}

func withField(fields map[string]string, k, v string) map[string]string {
	if v == "" {
		return fields
	}
	if fields == nil {
		fields = make(map[string]string)
	}
	fields[k] = v
	return fields
}
