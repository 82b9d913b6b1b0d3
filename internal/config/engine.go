package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/insert"
	"github.com/dgallion1/docfill/internal/mapper"
)

// Engine is the insertion tuning file:
//
//	mapper:
//	  max_length_ratio: 4
//	insert:
//	  direct_confidence: 0.85
//	  collapse_ratio: 0.4
//
// Omitted settings keep their defaults.
type Engine struct {
	Mapper mapper.Config `yaml:"mapper"`
	Insert insert.Config `yaml:"insert"`
}

// DefaultEngine returns the default tuning.
func DefaultEngine() Engine {
	return Engine{Mapper: mapper.DefaultConfig(), Insert: insert.DefaultConfig()}
}

// LoadEngine reads tuning from path. An empty path yields the defaults.
func LoadEngine(path string) (Engine, error) {
	if path == "" {
		return DefaultEngine(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Engine{}, fmt.Errorf("open engine config: %w", err)
	}
	defer f.Close()
	return DecodeEngine(f)
}

// DecodeEngine decodes tuning over the defaults and validates the result.
func DecodeEngine(r io.Reader) (Engine, error) {
	e := DefaultEngine()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil && !errors.Is(err, io.EOF) {
		return Engine{}, fmt.Errorf("decode engine config: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Engine{}, err
	}
	return e, nil
}

func (e Engine) Validate() error {
	return multierr.Combine(e.Mapper.Validate(), e.Insert.Validate())
}

// NewEngine builds an insertion engine from the tuning.
func (e Engine) NewEngine(log *slog.Logger) *insert.Engine {
	return insert.New(e.Insert, e.Mapper, log)
}

// LoadLibrary reads the pattern library at path, or returns the embedded
// default when path is empty.
func LoadLibrary(path string) (*analyzer.Library, error) {
	if path == "" {
		return analyzer.DefaultLibrary(), nil
	}
	return analyzer.LoadLibraryFile(path)
}
