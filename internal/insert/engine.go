// Package insert executes insertion plans against a live document.
package insert

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/mapper"
	"github.com/dgallion1/docfill/internal/style"
)

// State is a step of an insertion run.
type State string

const (
	StateSelecting  State = "SELECTING_STRATEGY"
	StateExecuting  State = "EXECUTING"
	StateValidating State = "VALIDATING"
	StateDone       State = "DONE"
)

// Result is the terminal report of one insertion run.
type Result struct {
	Success          bool         `json:"success"`
	Strategy         Strategy     `json:"strategy"`
	Selected         bool         `json:"selected"` // false when the strategy was overridden
	Signals          Signals      `json:"signals"`
	ZonesProcessed   int          `json:"zones_processed"`
	ItemsInserted    int          `json:"items_inserted"`
	ItemsPlanned     int          `json:"items_planned"`
	Cleared          int          `json:"placeholders_cleared"`
	ParagraphsBefore int          `json:"paragraphs_before"`
	ParagraphsAfter  int          `json:"paragraphs_after"`
	PlanConfidence   float64      `json:"plan_confidence"`
	Warnings         []string     `json:"warnings"`
	Errors           []string     `json:"errors"`
	States           []State      `json:"states"`
	Plan             *mapper.Plan `json:"-"`
}

// Engine is the adaptive insertion engine. An Engine holds no per-run state
// and may be shared; a single document must not be filled concurrently.
type Engine struct {
	cfg      Config
	mapper   *mapper.Mapper
	seqZones []analyzer.ZoneType
	log      *slog.Logger
}

// New returns an Engine. A nil logger discards output.
func New(cfg Config, mcfg mapper.Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, mapper: mapper.New(mcfg), seqZones: mcfg.SequentialZones, log: log}
}

// Default returns an Engine with default configuration.
func Default() *Engine {
	return New(DefaultConfig(), mapper.DefaultConfig(), nil)
}

// Insert maps items onto st, selects a strategy and fills doc in place.
func (e *Engine) Insert(doc doctree.Document, st *analyzer.TemplateStructure, items []content.Item) (*Result, error) {
	return e.InsertWith(doc, st, items, "")
}

// InsertWith is Insert with a strategy override. An empty strategy selects
// automatically.
func (e *Engine) InsertWith(doc doctree.Document, st *analyzer.TemplateStructure, items []content.Item, strategy Strategy) (*Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if st == nil {
		return nil, ErrNilStructure
	}
	plan := e.mapper.Map(items, st)
	return e.Execute(doc, st, plan, strategy), nil
}

// Execute runs the state machine for an existing plan.
func (e *Engine) Execute(doc doctree.Document, st *analyzer.TemplateStructure, plan *mapper.Plan, strategy Strategy) *Result {
	res := &Result{
		Plan:             plan,
		ItemsPlanned:     plan.Len(),
		PlanConfidence:   plan.Confidence,
		ParagraphsBefore: doc.Len(),
		Signals:          SignalsFor(st, plan),
	}
	res.Warnings = append(res.Warnings, plan.Warnings...)

	res.enter(e.log, StateSelecting)
	if strategy == "" {
		strategy = SelectStrategy(res.Signals, e.cfg)
		res.Selected = true
	}
	res.Strategy = strategy
	log := e.log.With("strategy", strategy)

	res.enter(log, StateExecuting)
	x := newExecutor(doc, st, plan, e.seqZones, res, log)
	switch strategy {
	case StrategyDirect:
		x.direct(plan.Order)
	case StrategySectionAware:
		x.sectionAware(plan.Order)
	case StrategySequential:
		x.sequential(plan.Order)
	case StrategyHybrid:
		x.hybrid()
	default:
		res.Errors = append(res.Errors, fmt.Sprintf("unknown strategy %q", strategy))
	}
	if e.cfg.CleanupPlaceholders {
		x.cleanup(e.cfg.CleanupMarkers)
	}

	res.enter(log, StateValidating)
	e.validate(doc, st, res)

	res.enter(log, StateDone)
	log.Info("insertion finished",
		"success", res.Success,
		"inserted", res.ItemsInserted,
		"planned", res.ItemsPlanned,
		"errors", len(res.Errors),
	)
	return res
}

func (r *Result) enter(log *slog.Logger, s State) {
	r.States = append(r.States, s)
	log.Debug("insertion state", "state", s)
}

// validate checks the outcome; only a zero-insert run or a paragraph
// collapse marks the result unsuccessful.
func (e *Engine) validate(doc doctree.Document, st *analyzer.TemplateStructure, res *Result) {
	res.ParagraphsAfter = doc.Len()
	res.Success = true

	if res.ItemsInserted < res.ItemsPlanned {
		res.Warnings = append(res.Warnings, fmt.Sprintf("inserted %d of %d planned items", res.ItemsInserted, res.ItemsPlanned))
	}
	if res.ItemsInserted == 0 {
		res.Success = false
		res.Warnings = append(res.Warnings, "no content was inserted")
	}
	if res.ParagraphsBefore > 0 && float64(res.ParagraphsAfter) < float64(res.ParagraphsBefore)*e.cfg.CollapseRatio {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("document collapsed from %d to %d paragraphs", res.ParagraphsBefore, res.ParagraphsAfter))
	}
	res.Warnings = append(res.Warnings, style.CheckConsistency(st.StyleRules, e.cfg.StyleLimits)...)
}
