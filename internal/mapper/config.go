package mapper

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/dgallion1/docfill/internal/analyzer"
)

// Config tunes the three mapping passes.
type Config struct {
	// Chapter buckets used when a chapter heading was not detected: chapter 1
	// covers paragraphs [0, FirstChapterSpan), each later chapter the next
	// ChapterStride paragraphs.
	FirstChapterSpan int `yaml:"first_chapter_span"`
	ChapterStride    int `yaml:"chapter_stride"`

	// MaxLengthRatio bounds item length against the zone's original text in
	// the semantic pass.
	MaxLengthRatio float64 `yaml:"max_length_ratio"`

	DirectZones     []analyzer.ZoneType `yaml:"direct_zones"`
	SemanticZones   []analyzer.ZoneType `yaml:"semantic_zones"`
	SequentialZones []analyzer.ZoneType `yaml:"sequential_zones"`
}

// DefaultConfig returns the standard mapping configuration.
func DefaultConfig() Config {
	return Config{
		FirstChapterSpan: 200,
		ChapterStride:    100,
		MaxLengthRatio:   3,
		DirectZones:      []analyzer.ZoneType{analyzer.ZoneContent, analyzer.ZonePlaceholder},
		SemanticZones:    []analyzer.ZoneType{analyzer.ZoneHeader, analyzer.ZoneContent, analyzer.ZonePlaceholder},
		SequentialZones:  []analyzer.ZoneType{analyzer.ZoneContent, analyzer.ZonePlaceholder},
	}
}

var validZone = map[analyzer.ZoneType]bool{
	analyzer.ZoneHeader:      true,
	analyzer.ZoneContent:     true,
	analyzer.ZonePlaceholder: true,
	analyzer.ZoneStructural:  true,
	analyzer.ZoneFrontMatter: true,
	analyzer.ZoneBackMatter:  true,
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs error
	if c.FirstChapterSpan <= 0 {
		errs = multierr.Append(errs, errors.New("mapper: first_chapter_span must be positive"))
	}
	if c.ChapterStride <= 0 {
		errs = multierr.Append(errs, errors.New("mapper: chapter_stride must be positive"))
	}
	if c.MaxLengthRatio <= 0 {
		errs = multierr.Append(errs, errors.New("mapper: max_length_ratio must be positive"))
	}
	for _, set := range []struct {
		name  string
		types []analyzer.ZoneType
	}{
		{"direct_zones", c.DirectZones},
		{"semantic_zones", c.SemanticZones},
		{"sequential_zones", c.SequentialZones},
	} {
		for _, t := range set.types {
			if !validZone[t] {
				errs = multierr.Append(errs, fmt.Errorf("mapper: %s: unknown zone type %q", set.name, t))
			}
		}
	}
	return errs
}

// bucket returns the fallback paragraph range for chapter n.
func (c Config) bucket(n int) (start, end int) {
	if n <= 1 {
		return 0, c.FirstChapterSpan
	}
	start = c.FirstChapterSpan + (n-2)*c.ChapterStride
	return start, start + c.ChapterStride
}
