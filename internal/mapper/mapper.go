// Package mapper assigns generated content items to template zones.
package mapper

import (
	"fmt"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/style"
)

// Mapper runs the direct, semantic and sequential passes. It is stateless
// apart from its configuration.
type Mapper struct {
	cfg Config
}

// New returns a Mapper using cfg.
func New(cfg Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Map runs all three passes.
func Map(items []content.Item, st *analyzer.TemplateStructure) *Plan {
	return New(DefaultConfig()).Map(items, st)
}

// Map runs all three passes.
func (m *Mapper) Map(items []content.Item, st *analyzer.TemplateStructure) *Plan {
	return m.Run(items, st, AllPasses...)
}

// run is the working state of one mapping run.
type run struct {
	cfg     Config
	st      *analyzer.TemplateStructure
	zones   []*analyzer.Zone // document order
	items   []content.Item   // input order, duplicates removed
	claimed map[string]bool  // zone ids
	used    []bool           // parallel to items
	plan    *Plan
}

// Run executes the given passes, always in canonical order, each over the
// zones and items the earlier passes left unclaimed.
func (m *Mapper) Run(items []content.Item, st *analyzer.TemplateStructure, passes ...Pass) *Plan {
	r := &run{
		cfg:     m.cfg,
		st:      st,
		zones:   st.InOrder(),
		claimed: make(map[string]bool),
		plan:    newPlan(),
	}
	for _, it := range items {
		if _, dup := r.plan.Items[it.ID]; dup {
			r.plan.Warnings = append(r.plan.Warnings, fmt.Sprintf("duplicate content item id %q ignored", it.ID))
			continue
		}
		r.plan.Items[it.ID] = it
		r.items = append(r.items, it)
	}
	r.used = make([]bool, len(r.items))

	for _, p := range AllPasses {
		if !slices.Contains(passes, p) {
			continue
		}
		before := r.plan.Len()
		switch p {
		case PassDirect:
			r.direct()
		case PassSemantic:
			r.semantic()
		case PassSequential:
			r.sequential()
		}
		if r.plan.Len() > before {
			if p != PassDirect {
				r.plan.Fallback = string(p)
			}
			if p == PassSequential {
				r.plan.HierarchyPreserved = false
			}
		}
		r.plan.Coverage = append(r.plan.Coverage, PassCoverage{Pass: p, Mapped: r.plan.Len()})
	}

	r.finish()
	return r.plan
}

func (r *run) assign(z *analyzer.Zone, i int, p Pass) {
	r.claimed[z.ID] = true
	r.used[i] = true
	r.plan.Mappings[z.ID] = r.items[i].ID
	r.plan.Sources[z.ID] = p
}

func (r *run) eligible(z *analyzer.Zone, types []analyzer.ZoneType) bool {
	return !r.claimed[z.ID] && slices.Contains(types, z.Type)
}

// direct groups items by chapter and fills each chapter's zones in document
// order. Chapters come from detected chapter headings, or from fixed
// position buckets when the heading was not detected.
func (r *run) direct() {
	spans := make(map[int]analyzer.ChapterSpan)
	for _, s := range r.st.ChapterSpans() {
		if _, seen := spans[s.Chapter]; !seen {
			spans[s.Chapter] = s
		}
	}

	var chapters []int
	byChapter := make(map[int][]int)
	for i, it := range r.items {
		c := it.Metadata.Chapter
		if _, ok := byChapter[c]; !ok {
			chapters = append(chapters, c)
		}
		byChapter[c] = append(byChapter[c], i)
	}
	sort.Ints(chapters)

	for _, c := range chapters {
		start, end := r.cfg.bucket(c)
		if s, ok := spans[c]; ok {
			start, end = s.Start, s.End
		}
		for _, i := range byChapter[c] {
			for _, z := range r.zones {
				if z.Start < start || z.Start >= end || !r.eligible(z, r.cfg.DirectZones) {
					continue
				}
				if !Compatible(r.items[i].Kind, z.Type) {
					continue
				}
				r.assign(z, i, PassDirect)
				break
			}
		}
	}
}

// semantic pairs each remaining zone with the first remaining item whose kind
// fits the zone type and whose length stays within MaxLengthRatio of the
// zone's original text.
func (r *run) semantic() {
	order := r.chapterOrder()
	for _, z := range r.zones {
		if !r.eligible(z, r.cfg.SemanticZones) {
			continue
		}
		limit := r.cfg.MaxLengthRatio * float64(utf8.RuneCountInString(z.Text))
		for _, i := range order {
			if r.used[i] {
				continue
			}
			it := r.items[i]
			if !Compatible(it.Kind, z.Type) || float64(it.Len()) > limit {
				continue
			}
			r.assign(z, i, PassSemantic)
			break
		}
	}
}

// sequential zips the remaining zones, by position, with the remaining items,
// by chapter, without any compatibility check.
func (r *run) sequential() {
	order := r.chapterOrder()
	next := 0
	for _, z := range r.zones {
		if !r.eligible(z, r.cfg.SequentialZones) {
			continue
		}
		for next < len(order) && r.used[order[next]] {
			next++
		}
		if next == len(order) {
			return
		}
		r.assign(z, order[next], PassSequential)
		next++
	}
}

// chapterOrder returns item indexes sorted by declared chapter, stable.
func (r *run) chapterOrder() []int {
	order := make([]int, len(r.items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return r.items[order[a]].Metadata.Chapter < r.items[order[b]].Metadata.Chapter
	})
	return order
}

// finish resolves styles, records mapping gaps and scores the plan.
func (r *run) finish() {
	eng := style.New(r.st.StyleRules)
	direct, semantic := 0, 0
	for _, z := range r.zones {
		itemID, ok := r.plan.Mappings[z.ID]
		if !ok {
			if z.Type == analyzer.ZonePlaceholder {
				r.plan.Warnings = append(r.plan.Warnings, fmt.Sprintf("placeholder zone %s has no content", z.ID))
			}
			continue
		}
		r.plan.Order = append(r.plan.Order, z.ID)
		r.plan.Styles[itemID] = eng.ResolveFor(z, r.plan.Items[itemID].Kind)
		switch r.plan.Sources[z.ID] {
		case PassDirect:
			direct++
		case PassSemantic:
			semantic++
		}
	}
	for i, it := range r.items {
		if !r.used[i] {
			r.plan.Warnings = append(r.plan.Warnings, fmt.Sprintf("content item %s (%s) has no zone", it.ID, it.Kind))
		}
	}

	mapped := r.plan.Len()
	if mapped == 0 || len(r.items) == 0 {
		r.plan.Confidence = 0
		return
	}
	styled := 0
	for _, f := range r.plan.Styles {
		if !f.IsEmpty() {
			styled++
		}
	}
	score := 30 * float64(mapped) / float64(len(r.items))
	if r.plan.HierarchyPreserved {
		score += 20
	}
	score += 20 * float64(styled) / float64(mapped)
	score += 30 * (float64(direct) + 0.5*float64(semantic)) / float64(mapped)
	r.plan.Confidence = min(max(score, 0), 100)
}

// Compatible reports whether an item of kind may be placed in a zone of type
// t. Chapter titles only go into headers and body content never does.
func Compatible(kind content.Kind, t analyzer.ZoneType) bool {
	switch kind {
	case content.KindChapterTitle:
		return t == analyzer.ZoneHeader
	case content.KindSubsectionTitle:
		return true
	default:
		return t != analyzer.ZoneHeader
	}
}
