package insert

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/mapper"
	"github.com/dgallion1/docfill/internal/style"
)

// executor applies plan mappings to a document for one run.
type executor struct {
	doc  doctree.Document
	st   *analyzer.TemplateStructure
	plan *mapper.Plan
	res  *Result
	log  *slog.Logger

	styles   *style.Engine
	seqZones []analyzer.ZoneType

	zonesDone map[string]bool // attempted zones
	itemsDone map[string]bool // inserted items
	failed    map[string]bool // zones whose write failed
}

func newExecutor(doc doctree.Document, st *analyzer.TemplateStructure, plan *mapper.Plan, seqZones []analyzer.ZoneType, res *Result, log *slog.Logger) *executor {
	return &executor{
		doc:       doc,
		st:        st,
		plan:      plan,
		res:       res,
		log:       log,
		styles:    style.New(st.StyleRules),
		seqZones:  seqZones,
		zonesDone: make(map[string]bool),
		itemsDone: make(map[string]bool),
		failed:    make(map[string]bool),
	}
}

// direct writes each mapped zone's planned item in document order.
func (x *executor) direct(zones []string) {
	for _, id := range zones {
		if it, ok := x.plan.ItemFor(id); ok {
			x.write(id, it)
		}
	}
}

// sectionAware writes shallower zones first, then by position, so a parent
// header is final before its children. A child of a header that failed is
// skipped.
func (x *executor) sectionAware(zones []string) {
	ordered := make([]string, len(zones))
	copy(ordered, zones)
	depth := make(map[string]int, len(ordered))
	for _, id := range ordered {
		depth[id] = x.st.Depth(id)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if depth[ordered[i]] != depth[ordered[j]] {
			return depth[ordered[i]] < depth[ordered[j]]
		}
		return x.st.Zone(ordered[i]).Start < x.st.Zone(ordered[j]).Start
	})

	for _, id := range ordered {
		it, ok := x.plan.ItemFor(id)
		if !ok || x.zonesDone[id] {
			continue
		}
		if x.ancestorFailed(id) {
			z := x.st.Zone(id)
			x.zonesDone[id] = true
			x.res.ZonesProcessed++
			x.fail(&ZoneError{ZoneID: id, Paragraph: z.Start, Err: ErrParentFailed})
			continue
		}
		x.write(id, it)
	}
}

func (x *executor) ancestorFailed(id string) bool {
	for _, a := range x.st.Ancestors(id) {
		if x.failed[a] {
			return true
		}
	}
	return false
}

// sequential re-pairs the mapped zones eligible for sequential filling, by
// position, with their items, by declared chapter. Other mapped zones keep the
// plan's own item.
func (x *executor) sequential(zones []string) {
	ordered := make([]string, len(zones))
	copy(ordered, zones)
	sort.SliceStable(ordered, func(i, j int) bool {
		return x.st.Zone(ordered[i]).Start < x.st.Zone(ordered[j]).Start
	})

	var items []content.Item
	for _, id := range ordered {
		if !x.sequentialZone(id) {
			continue
		}
		if it, ok := x.plan.ItemFor(id); ok {
			items = append(items, it)
		}
	}
	items = content.ByChapter(items)

	next := 0
	for _, id := range ordered {
		if !x.sequentialZone(id) {
			if it, ok := x.plan.ItemFor(id); ok {
				x.write(id, it)
			}
			continue
		}
		if next < len(items) {
			x.write(id, items[next])
			next++
		}
	}
}

func (x *executor) sequentialZone(id string) bool {
	z := x.st.Zone(id)
	return z != nil && slices.Contains(x.seqZones, z.Type)
}

// hybrid runs direct replacement for direct-pass mappings, section-aware
// insertion for semantic ones, then sequential filling for the rest.
func (x *executor) hybrid() {
	x.direct(x.plan.ZonesFrom(mapper.PassDirect))
	x.sectionAware(x.plan.ZonesFrom(mapper.PassSemantic))

	var rest []string
	for _, id := range x.plan.Order {
		if !x.zonesDone[id] {
			rest = append(rest, id)
		}
	}
	x.sequential(rest)
}

// write places one item into one zone. Each zone and each item is written
// at most once per run.
func (x *executor) write(zoneID string, it content.Item) {
	if x.zonesDone[zoneID] || x.itemsDone[it.ID] {
		return
	}
	z := x.st.Zone(zoneID)
	if z == nil {
		x.res.Errors = append(x.res.Errors, fmt.Sprintf("zone %s not in structure", zoneID))
		return
	}
	x.zonesDone[zoneID] = true
	x.res.ZonesProcessed++

	target := z.Start
	if it.Kind.IsTitle() && z.End > z.Start {
		target = z.End
	}
	if err := x.apply(target, it.Text, x.styleFor(z, it)); err != nil {
		x.failed[zoneID] = true
		x.fail(&ZoneError{ZoneID: zoneID, Paragraph: target, Err: err})
		return
	}
	x.itemsDone[it.ID] = true
	x.res.ItemsInserted++
}

// styleFor returns the plan's style when it was resolved for this zone and
// resolves a fresh one otherwise.
func (x *executor) styleFor(z *analyzer.Zone, it content.Item) doctree.Format {
	if f, ok := x.plan.Styles[it.ID]; ok && x.plan.Mappings[z.ID] == it.ID {
		return f
	}
	return x.styles.ResolveFor(z, it.Kind)
}

func (x *executor) apply(index int, text string, f doctree.Format) error {
	p, err := x.doc.Editable(index)
	if err != nil {
		return err
	}
	if err := p.ReplaceText(text); err != nil {
		return fmt.Errorf("replace text: %w", err)
	}
	if f.IsEmpty() {
		return nil
	}
	if err := p.ApplyStyle(f); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}
	return nil
}

func (x *executor) fail(err *ZoneError) {
	x.log.Warn("zone insertion failed", "zone", err.ZoneID, "paragraph", err.Paragraph, "error", err.Err)
	x.res.Errors = append(x.res.Errors, err.Error())
}

// cleanup clears unfilled placeholder zones that still hold a bare marker.
func (x *executor) cleanup(markers []string) {
	for _, z := range x.st.ZonesOfType(analyzer.ZonePlaceholder) {
		if x.zonesDone[z.ID] || !isMarker(z.Text, markers) {
			continue
		}
		p, err := x.doc.Editable(z.Start)
		if err == nil {
			err = p.ReplaceText("")
		}
		if err != nil {
			x.res.Warnings = append(x.res.Warnings, fmt.Sprintf("could not clear placeholder %s: %v", z.ID, err))
			continue
		}
		x.res.Cleared++
	}
}

func isMarker(text string, markers []string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}
