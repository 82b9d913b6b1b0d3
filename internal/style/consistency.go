package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// Limits bounds acceptable variation across a template's styles.
type Limits struct {
	MaxFonts         int     `yaml:"max_fonts"`
	MaxAlignments    int     `yaml:"max_alignments"`
	MaxSpacingSpread float64 `yaml:"max_spacing_spread"`
}

// DefaultLimits returns the standard consistency limits.
func DefaultLimits() Limits {
	return Limits{MaxFonts: 2, MaxAlignments: 3, MaxSpacingSpread: 1.0}
}

// CheckConsistency reports formatting inconsistencies across style rules.
// Warnings are returned in a fixed order.
func CheckConsistency(rules map[string]doctree.Format, l Limits) []string {
	fonts := make(map[string]bool)
	aligns := make(map[doctree.Alignment]bool)
	lo, hi := 0.0, 0.0
	for _, f := range rules {
		if f.FontFamily != "" {
			fonts[f.FontFamily] = true
		}
		if f.Alignment != "" {
			aligns[f.Alignment] = true
		}
		if f.LineSpacing > 0 {
			if lo == 0 || f.LineSpacing < lo {
				lo = f.LineSpacing
			}
			hi = max(hi, f.LineSpacing)
		}
	}

	var warnings []string
	if l.MaxFonts > 0 && len(fonts) > l.MaxFonts {
		warnings = append(warnings, fmt.Sprintf("template uses %d fonts (%s)", len(fonts), joinKeys(fonts)))
	}
	if l.MaxAlignments > 0 && len(aligns) > l.MaxAlignments {
		warnings = append(warnings, fmt.Sprintf("template uses %d paragraph alignments", len(aligns)))
	}
	if l.MaxSpacingSpread > 0 && hi-lo > l.MaxSpacingSpread {
		warnings = append(warnings, fmt.Sprintf("line spacing varies from %.2g to %.2g", lo, hi))
	}
	return warnings
}

func joinKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
