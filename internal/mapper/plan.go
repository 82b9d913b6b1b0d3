package mapper

import (
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/doctree"
)

// Pass identifies one of the three mapping passes.
type Pass string

const (
	PassDirect     Pass = "direct"
	PassSemantic   Pass = "semantic"
	PassSequential Pass = "sequential"
)

// AllPasses lists the passes in execution order.
var AllPasses = []Pass{PassDirect, PassSemantic, PassSequential}

// PassCoverage is the cumulative number of mappings after a pass ran.
type PassCoverage struct {
	Pass   Pass `json:"pass"`
	Mapped int  `json:"mapped"`
}

// Plan is the resolved assignment of content items to zones.
type Plan struct {
	Mappings           map[string]string         `json:"mappings"` // zone id -> item id
	Styles             map[string]doctree.Format `json:"styles"`   // item id -> resolved style
	Sources            map[string]Pass           `json:"sources"`  // zone id -> pass that mapped it
	Coverage           []PassCoverage            `json:"coverage"`
	HierarchyPreserved bool                      `json:"hierarchy_preserved"`
	Fallback           string                    `json:"fallback"`
	Confidence         float64                   `json:"confidence"` // 0-100
	Warnings           []string                  `json:"warnings,omitempty"`
	Items              map[string]content.Item   `json:"-"`
	Order              []string                  `json:"order"` // mapped zone ids in document order
}

func newPlan() *Plan {
	return &Plan{
		Mappings:           make(map[string]string),
		Styles:             make(map[string]doctree.Format),
		Sources:            make(map[string]Pass),
		Items:              make(map[string]content.Item),
		HierarchyPreserved: true,
		Fallback:           "none",
	}
}

// Len returns the number of mapped zones.
func (p *Plan) Len() int { return len(p.Mappings) }

// Count returns how many mappings pass produced.
func (p *Plan) Count(pass Pass) int {
	n := 0
	for _, src := range p.Sources {
		if src == pass {
			n++
		}
	}
	return n
}

// DirectRatio is the share of mappings produced by the direct pass.
func (p *Plan) DirectRatio() float64 {
	if len(p.Mappings) == 0 {
		return 0
	}
	return float64(p.Count(PassDirect)) / float64(len(p.Mappings))
}

// ItemFor returns the item mapped to zone id.
func (p *Plan) ItemFor(zoneID string) (content.Item, bool) {
	id, ok := p.Mappings[zoneID]
	if !ok {
		return content.Item{}, false
	}
	it, ok := p.Items[id]
	return it, ok
}

// ZonesFrom returns the mapped zone ids produced by pass, in document order.
func (p *Plan) ZonesFrom(pass Pass) []string {
	var out []string
	for _, id := range p.Order {
		if p.Sources[id] == pass {
			out = append(out, id)
		}
	}
	return out
}
