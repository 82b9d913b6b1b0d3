package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docfill/internal/content"
	"github.com/dgallion1/docfill/internal/generate"
	"github.com/dgallion1/docfill/internal/insert"
)

const thesisTemplate = `BAB I PENDAHULUAN

1.1 Latar Belakang

TULISKAN LATAR BELAKANG

1.2 Rumusan Masalah

[empty]

BAB II TINJAUAN PUSTAKA

2.1 Landasan Teori

Jelaskan teori yang digunakan
`

const thesisContent = `{
  "chapter1": {
    "latar_belakang": "Latar belakang penelitian.",
    "rumusan_masalah": "Rumusan masalah penelitian."
  },
  "chapter2": {
    "landasan_teori": "Teori yang digunakan."
  }
}`

// fakeGenerator fails with the queued errors before returning items.
type fakeGenerator struct {
	mu      sync.Mutex
	errs    []error
	items   []content.Item
	calls   int
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) ([]content.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return nil, err
	}
	return g.items, nil
}

func thesisItems(t *testing.T) []content.Item {
	t.Helper()
	items, err := content.Decode(strings.NewReader(thesisContent))
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	return items
}

func newTestFiller(g Generator) *Filler {
	f := NewFiller(nil, nil, g, nil)
	f.backoff = func(int) time.Duration { return 0 }
	return f
}

func TestFill_SuppliedContent(t *testing.T) {
	var phases []JobStatus
	req := FillRequest{
		Filename:    "template.txt",
		Template:    []byte(thesisTemplate),
		Content:     []byte(thesisContent),
		ContentName: "isi.json",
		OnPhase:     func(s JobStatus, _ string) { phases = append(phases, s) },
	}

	out, err := newTestFiller(nil).Fill(context.Background(), req)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if out.Result == nil || !out.Result.Success {
		t.Fatalf("expected successful result, got %+v", out.Result)
	}
	if out.Result.ItemsInserted != 3 {
		t.Errorf("expected 3 items inserted, got %d", out.Result.ItemsInserted)
	}
	if out.OutputName != "template_filled.md" {
		t.Errorf("unexpected output name %q", out.OutputName)
	}
	text := string(out.Output)
	for _, want := range []string{"BAB I PENDAHULUAN", "Latar belakang penelitian.", "Rumusan masalah penelitian.", "Teori yang digunakan."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "TULISKAN LATAR BELAKANG") {
		t.Error("placeholder text survived the fill")
	}
	if len(out.Summary.Chapters) != 2 {
		t.Errorf("expected 2 chapters in summary, got %d", len(out.Summary.Chapters))
	}
	if out.Hash == "" {
		t.Error("expected template hash")
	}
	if phases[0] != StatusParsing || phases[1] != StatusAnalyzing || phases[len(phases)-1] != StatusInserting {
		t.Errorf("unexpected phases %v", phases)
	}
}

func TestFill_StrategyOverride(t *testing.T) {
	out, err := newTestFiller(nil).Fill(context.Background(), FillRequest{
		Filename: "template.txt",
		Template: []byte(thesisTemplate),
		Items:    thesisItems(t),
		Strategy: "sequential",
	})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if out.Result.Strategy != insert.StrategySequential || out.Result.Selected {
		t.Errorf("expected overridden sequential strategy, got %s (selected=%v)", out.Result.Strategy, out.Result.Selected)
	}
}

func TestFill_GeneratesWithRetry(t *testing.T) {
	g := &fakeGenerator{
		errs:  []error{&generate.RetryableError{StatusCode: 529, Message: "overloaded"}},
		items: thesisItems(t),
	}
	var phases []JobStatus
	out, err := newTestFiller(g).Fill(context.Background(), FillRequest{
		Filename: "template.txt",
		Template: []byte(thesisTemplate),
		Topic:    "Sistem informasi akademik",
		OnPhase:  func(s JobStatus, _ string) { phases = append(phases, s) },
	})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if g.calls != 2 {
		t.Errorf("expected 2 generator calls, got %d", g.calls)
	}
	if !strings.Contains(g.prompts[0], "Sistem informasi akademik") {
		t.Errorf("prompt does not mention the topic: %q", g.prompts[0])
	}
	if out.Result.ItemsInserted != 3 {
		t.Errorf("expected 3 items inserted, got %d", out.Result.ItemsInserted)
	}
	found := false
	for _, p := range phases {
		found = found || p == StatusGenerating
	}
	if !found {
		t.Errorf("expected generating phase, got %v", phases)
	}
}

func TestFill_GenerationGivesUp(t *testing.T) {
	retry := &generate.RetryableError{StatusCode: 500}
	g := &fakeGenerator{errs: []error{retry, retry, retry, retry}}
	_, err := newTestFiller(g).Fill(context.Background(), FillRequest{
		Filename: "template.txt",
		Template: []byte(thesisTemplate),
		Topic:    "topik",
	})
	if !IsRetryable(err) {
		t.Fatalf("expected wrapped retryable error, got %v", err)
	}
	if g.calls != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, g.calls)
	}
}

func TestFill_NonRetryableStopsImmediately(t *testing.T) {
	g := &fakeGenerator{errs: []error{errors.New("bad request")}}
	_, err := newTestFiller(g).Fill(context.Background(), FillRequest{
		Filename: "template.txt",
		Template: []byte(thesisTemplate),
		Topic:    "topik",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if g.calls != 1 {
		t.Errorf("expected 1 call, got %d", g.calls)
	}
}

func TestFill_Errors(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
		req  FillRequest
		want error
	}{
		{
			name: "no content or topic",
			req:  FillRequest{Filename: "t.txt", Template: []byte(thesisTemplate)},
			want: ErrNoContent,
		},
		{
			name: "topic without generator",
			req:  FillRequest{Filename: "t.txt", Template: []byte(thesisTemplate), Topic: "x"},
			want: ErrGenerationDisabled,
		},
		{
			name: "every item rejected",
			req: FillRequest{Filename: "t.txt", Template: []byte(thesisTemplate),
				Items: []content.Item{content.NewItem("a", content.KindParagraph, "x", 2, 1, "")}},
			want: ErrNoValidContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestFiller(tt.gen).Fill(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFill_UnsupportedTemplate(t *testing.T) {
	_, err := newTestFiller(nil).Fill(context.Background(), FillRequest{
		Filename: "t.csv",
		Template: []byte("a,b"),
		Items:    thesisItems(t),
	})
	if err == nil {
		t.Fatal("expected error for unsupported template")
	}
}

func TestFill_InvalidStrategy(t *testing.T) {
	_, err := newTestFiller(nil).Fill(context.Background(), FillRequest{
		Filename: "t.txt",
		Template: []byte(thesisTemplate),
		Items:    thesisItems(t),
		Strategy: "random",
	})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestDecodeContent_Markdown(t *testing.T) {
	items, err := DecodeContent("isi.md", []byte("# BAB I PENDAHULUAN\n\nParagraf pembuka.\n"))
	if err != nil {
		t.Fatalf("DecodeContent: %v", err)
	}
	if len(items) != 2 || items[0].Kind != content.KindChapterTitle {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestOutputName(t *testing.T) {
	name, ct := outputName("dir/Skripsi.DOCX")
	if name != "Skripsi_filled.docx" || !strings.Contains(ct, "wordprocessingml") {
		t.Errorf("unexpected docx output %q %q", name, ct)
	}
	name, _ = outputName("notes.txt")
	if name != "notes_filled.md" {
		t.Errorf("unexpected text output %q", name)
	}
}
