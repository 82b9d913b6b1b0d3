package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/archive"
	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/generate"
	"github.com/dgallion1/docfill/internal/insert"
	"github.com/dgallion1/docfill/internal/parser"
)

var (
	// ErrNoContent is returned when a fill has neither content nor a topic.
	ErrNoContent = errors.New("fill: content or topic required")
	// ErrGenerationDisabled is returned when a topic is given but no generator is configured.
	ErrGenerationDisabled = errors.New("fill: content generation is not configured")
	// ErrNoValidContent is returned when every content item was rejected.
	ErrNoValidContent = errors.New("fill: no valid content items")
)

// Generator produces content items from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]content.Item, error)
}

// FillRequest is one template fill.
type FillRequest struct {
	Filename    string
	Template    []byte
	Content     []byte // JSON/YAML section map or Markdown; empty to generate
	ContentName string
	Items       []content.Item // pre-decoded content, used before Content
	Topic       string
	Strategy    string // "" or "auto" selects adaptively

	// OnPhase is called as the fill moves through its phases.
	OnPhase func(status JobStatus, phase string)
}

func (r FillRequest) phase(s JobStatus, phase string) {
	if r.OnPhase != nil {
		r.OnPhase(s, phase)
	}
}

// FillOutcome is everything a fill produced.
type FillOutcome struct {
	Hash        string
	Structure   *analyzer.TemplateStructure
	Summary     analyzer.Summary
	Items       []content.Item
	Dropped     []string
	Result      *insert.Result
	Output      []byte
	OutputName  string
	ContentType string
}

// Filler runs parse, analyze, content, insert and serialize for one template.
type Filler struct {
	Analyzer    *analyzer.Analyzer
	Engine      *insert.Engine
	Generator   Generator // optional
	PDFFallback bool
	Log         *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewFiller returns a filler with default analyzer and engine when nil.
func NewFiller(a *analyzer.Analyzer, e *insert.Engine, g Generator, log *slog.Logger) *Filler {
	if a == nil {
		a = analyzer.New(analyzer.DefaultLibrary())
	}
	if e == nil {
		e = insert.Default()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Filler{Analyzer: a, Engine: e, Generator: g, Log: log, backoff: Backoff}
}

// Fill runs the whole sequence. Insertion problems are reported in the
// outcome's Result; the returned error covers failures before insertion or
// while serialising.
func (f *Filler) Fill(ctx context.Context, req FillRequest) (*FillOutcome, error) {
	out := &FillOutcome{Hash: archive.HashTemplate(req.Template)}
	strategy, err := insert.ParseStrategy(req.Strategy)
	if err != nil {
		return out, err
	}

	req.phase(StatusParsing, "parsing")
	doc, err := f.parse(req.Filename, req.Template)
	if err != nil {
		return out, err
	}

	req.phase(StatusAnalyzing, "analyzing")
	st, err := f.Analyzer.Analyze(doc.Paragraphs())
	if err != nil {
		return out, fmt.Errorf("analyze: %w", err)
	}
	out.Structure = st
	out.Summary = st.Summary()
	f.Log.Debug("template analyzed", "zones", len(st.Zones), "confidence", st.Confidence)

	items, err := f.content(ctx, req, out.Summary)
	if err != nil {
		return out, err
	}
	items, out.Dropped = generate.ValidateItems(items)
	if len(items) == 0 {
		return out, ErrNoValidContent
	}
	out.Items = items

	req.phase(StatusInserting, "inserting")
	if strategy == "" {
		out.Result, err = f.Engine.Insert(doc, st, items)
	} else {
		out.Result, err = f.Engine.InsertWith(doc, st, items, strategy)
	}
	if err != nil {
		return out, fmt.Errorf("insert: %w", err)
	}

	req.phase(StatusInserting, "serializing")
	if err := f.serialize(doc, req.Filename, out); err != nil {
		return out, err
	}
	return out, nil
}

// Analyze parses and analyzes a template without filling it.
func (f *Filler) Analyze(filename string, data []byte) (*analyzer.TemplateStructure, error) {
	doc, err := f.parse(filename, data)
	if err != nil {
		return nil, err
	}
	st, err := f.Analyzer.Analyze(doc.Paragraphs())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return st, nil
}

func (f *Filler) parse(filename string, data []byte) (doctree.Document, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = f.PDFFallback
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return doc, nil
}

func (f *Filler) content(ctx context.Context, req FillRequest, summary analyzer.Summary) ([]content.Item, error) {
	switch {
	case len(req.Items) > 0:
		return req.Items, nil
	case len(req.Content) > 0:
		items, err := DecodeContent(req.ContentName, req.Content)
		if err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
		return items, nil
	case strings.TrimSpace(req.Topic) == "":
		return nil, ErrNoContent
	case f.Generator == nil:
		return nil, ErrGenerationDisabled
	}

	req.phase(StatusGenerating, "generating")
	prompt := generate.BuildPrompt(req.Topic, summary)
	return f.generate(ctx, prompt)
}

// generate calls the generator, retrying transient failures with backoff.
func (f *Filler) generate(ctx context.Context, prompt string) ([]content.Item, error) {
	backoff := f.backoff
	if backoff == nil {
		backoff = Backoff
	}
	var lastErr error
	for attempt := range MaxRetries {
		items, err := f.Generator.Generate(ctx, prompt)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
		f.Log.Warn("retryable generation error", "attempt", attempt, "error", err)
		if attempt == MaxRetries-1 {
			break
		}
		if err := sleepCtx(ctx, backoff(attempt)); err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
	}
	return nil, fmt.Errorf("generate: %w", lastErr)
}

func (f *Filler) serialize(doc doctree.Document, filename string, out *FillOutcome) error {
	w, ok := doc.(io.WriterTo)
	if !ok {
		return fmt.Errorf("serialize: %T cannot be written", doc)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	out.Output = buf.Bytes()
	out.OutputName, out.ContentType = outputName(filename)
	return nil
}

// outputName names the filled document. Only DOCX templates keep their format.
func outputName(filename string) (name, contentType string) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if parser.IsEditable(filename) {
		return base + "_filled.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return base + "_filled.md", "text/markdown; charset=utf-8"
}

// DecodeContent reads a content document: Markdown by extension, otherwise a
// JSON/YAML chapter map.
func DecodeContent(name string, data []byte) ([]content.Item, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return content.FromMarkdown(data)
	default:
		return content.Decode(bytes.NewReader(data))
	}
}
