package insert

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/mapper"
)

// Strategy is one of the four insertion algorithms.
type Strategy string

const (
	StrategyDirect       Strategy = "DIRECT_ZONE_REPLACEMENT"
	StrategySectionAware Strategy = "SECTION_AWARE_INSERTION"
	StrategySequential   Strategy = "SEQUENTIAL_ZONE_FILLING"
	StrategyHybrid       Strategy = "HYBRID_ADAPTIVE"
)

// Strategies lists every strategy.
var Strategies = []Strategy{StrategyDirect, StrategySectionAware, StrategySequential, StrategyHybrid}

// ParseStrategy accepts a strategy name or its short form (direct, section,
// sequential, hybrid), case-insensitively. An empty string or "auto" yields
// the empty Strategy, meaning "select automatically".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "direct", "direct_zone_replacement":
		return StrategyDirect, nil
	case "section", "section_aware", "section_aware_insertion":
		return StrategySectionAware, nil
	case "sequential", "sequential_zone_filling":
		return StrategySequential, nil
	case "hybrid", "hybrid_adaptive":
		return StrategyHybrid, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Signals are the inputs to strategy selection.
type Signals struct {
	Confidence      float64 `json:"confidence"`
	Placeholders    int     `json:"placeholders"`
	DirectRatio     float64 `json:"direct_ratio"`
	StructuredZones int     `json:"structured_zones"`
}

// SignalsFor derives selection signals from a structure and its plan.
// Placeholders counts recognised placeholder patterns on any zone type.
func SignalsFor(st *analyzer.TemplateStructure, plan *mapper.Plan) Signals {
	return Signals{
		Confidence:      st.Confidence,
		Placeholders:    len(st.Matches(analyzer.CategoryPlaceholders)),
		DirectRatio:     plan.DirectRatio(),
		StructuredZones: st.CountType(analyzer.ZoneHeader) + st.CountType(analyzer.ZoneContent),
	}
}

// SelectStrategy picks the first strategy whose conditions hold.
func SelectStrategy(s Signals, cfg Config) Strategy {
	switch {
	case s.Confidence > cfg.DirectConfidence && s.Placeholders > cfg.DirectPlaceholders && s.DirectRatio >= cfg.DirectRatio:
		return StrategyDirect
	case s.Confidence > cfg.SectionConfidence && s.StructuredZones > cfg.SectionZones:
		return StrategySectionAware
	case s.Confidence > cfg.SequentialConfidence:
		return StrategySequential
	}
	return StrategyHybrid
}
