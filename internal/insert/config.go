package insert

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/dgallion1/docfill/internal/style"
)

// Config holds the strategy-selection thresholds and validation settings.
// The thresholds are tuning defaults, not invariants.
type Config struct {
	DirectConfidence     float64 `yaml:"direct_confidence"`
	DirectPlaceholders   int     `yaml:"direct_placeholders"`
	DirectRatio          float64 `yaml:"direct_ratio"`
	SectionConfidence    float64 `yaml:"section_confidence"`
	SectionZones         int     `yaml:"section_zones"`
	SequentialConfidence float64 `yaml:"sequential_confidence"`

	// CollapseRatio is the fraction of the pre-insertion paragraph count
	// below which the document is considered corrupted.
	CollapseRatio float64 `yaml:"collapse_ratio"`

	CleanupPlaceholders bool         `yaml:"cleanup_placeholders"`
	CleanupMarkers      []string     `yaml:"cleanup_markers"`
	StyleLimits         style.Limits `yaml:"style_limits"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		DirectConfidence:     0.8,
		DirectPlaceholders:   5,
		DirectRatio:          0.7,
		SectionConfidence:    0.6,
		SectionZones:         10,
		SequentialConfidence: 0.4,
		CollapseRatio:        0.5,
		CleanupPlaceholders:  true,
		CleanupMarkers:       []string{"[empty]", "TULISKAN ISI", "Format paragraf dengan style"},
		StyleLimits:          style.DefaultLimits(),
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs error
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"direct_confidence", c.DirectConfidence},
		{"direct_ratio", c.DirectRatio},
		{"section_confidence", c.SectionConfidence},
		{"sequential_confidence", c.SequentialConfidence},
		{"collapse_ratio", c.CollapseRatio},
	} {
		if v.value < 0 || v.value > 1 {
			errs = multierr.Append(errs, errors.New("insert: "+v.name+" must be within [0,1]"))
		}
	}
	if c.DirectPlaceholders < 0 {
		errs = multierr.Append(errs, errors.New("insert: direct_placeholders must not be negative"))
	}
	if c.SectionZones < 0 {
		errs = multierr.Append(errs, errors.New("insert: section_zones must not be negative"))
	}
	if c.SequentialConfidence > c.SectionConfidence || c.SectionConfidence > c.DirectConfidence {
		errs = multierr.Append(errs, errors.New("insert: confidence thresholds must not decrease from sequential to section to direct"))
	}
	return errs
}
