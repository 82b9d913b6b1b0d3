package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docfill/internal/analyzer"
)

const (
	rootKey   = "docfill/templates"
	fillsPart = "fills"
	source    = "docfill"
)

// TemplateRecord is the archived analysis of one template.
type TemplateRecord struct {
	Hash       string           `json:"hash"`
	Filename   string           `json:"filename"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
	Summary    analyzer.Summary `json:"summary"`
}

// FillReport is the archived outcome of one fill job.
type FillReport struct {
	JobID          string    `json:"job_id"`
	Strategy       string    `json:"strategy"`
	Success        bool      `json:"success"`
	ZonesProcessed int       `json:"zones_processed"`
	ItemsInserted  int       `json:"items_inserted"`
	ItemsPlanned   int       `json:"items_planned"`
	PlanConfidence float64   `json:"plan_confidence"`
	Warnings       []string  `json:"warnings,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Store is the subset of the KV client the archive needs.
type Store interface {
	PutNode(ctx context.Context, key string, req NodeRequest) error
	GetNode(ctx context.Context, key string) (*Node, error)
	ListChildren(ctx context.Context, key string, limit int) ([]Node, error)
	DeleteNode(ctx context.Context, key string, recursive bool) error
	PutLink(ctx context.Context, req LinkRequest) error
}

// Archive records template analyses and fill reports keyed by template hash.
type Archive struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Archive {
	return &Archive{store: store, now: time.Now}
}

// HashTemplate returns the archive key for template bytes.
func HashTemplate(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func templateKey(hash string) string {
	return rootKey + "/" + hash
}

func fillKey(hash, jobID string) string {
	return templateKey(hash) + "/" + fillsPart + "/" + jobID
}

// RecordAnalysis stores the analysis summary of a template.
func (a *Archive) RecordAnalysis(ctx context.Context, hash, filename string, summary analyzer.Summary) error {
	rec := TemplateRecord{
		Hash:       hash,
		Filename:   filename,
		AnalyzedAt: a.now().UTC(),
		Summary:    summary,
	}
	if err := a.store.PutNode(ctx, templateKey(hash), NodeRequest{Value: rec, Source: source}); err != nil {
		return fmt.Errorf("record analysis %s: %w", hash, err)
	}
	return nil
}

// RecordFill stores a fill report under its template and links the two.
func (a *Archive) RecordFill(ctx context.Context, hash, jobID string, report FillReport) error {
	if report.CompletedAt.IsZero() {
		report.CompletedAt = a.now().UTC()
	}
	report.JobID = jobID
	key := fillKey(hash, jobID)
	if err := a.store.PutNode(ctx, key, NodeRequest{Value: report, Source: source}); err != nil {
		return fmt.Errorf("record fill %s: %w", jobID, err)
	}
	link := LinkRequest{
		From:    key,
		To:      templateKey(hash),
		Weight:  report.PlanConfidence / 100,
		Summary: report.Strategy,
	}
	if err := a.store.PutLink(ctx, link); err != nil {
		return fmt.Errorf("link fill %s: %w", jobID, err)
	}
	return nil
}

// Template returns the archived record for hash, or nil when none exists.
func (a *Archive) Template(ctx context.Context, hash string) (*TemplateRecord, error) {
	node, err := a.store.GetNode(ctx, templateKey(hash))
	if err != nil || node == nil {
		return nil, err
	}
	var rec TemplateRecord
	if err := json.Unmarshal(node.Value, &rec); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", hash, err)
	}
	return &rec, nil
}

// ListTemplates returns every archived template, newest first. Fill reports
// stored beneath templates are skipped.
func (a *Archive) ListTemplates(ctx context.Context) ([]TemplateRecord, error) {
	nodes, err := a.store.ListChildren(ctx, rootKey, 0)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var out []TemplateRecord
	for _, n := range nodes {
		rest := strings.TrimPrefix(n.Key, rootKey+"/")
		if rest == n.Key || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		var rec TemplateRecord
		if err := json.Unmarshal(n.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode template %s: %w", rest, err)
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
	})
	return out, nil
}

// ListFills returns the fill reports archived for a template.
func (a *Archive) ListFills(ctx context.Context, hash string) ([]FillReport, error) {
	nodes, err := a.store.ListChildren(ctx, templateKey(hash)+"/"+fillsPart, 0)
	if err != nil {
		return nil, fmt.Errorf("list fills %s: %w", hash, err)
	}
	out := make([]FillReport, 0, len(nodes))
	for _, n := range nodes {
		var r FillReport
		if err := json.Unmarshal(n.Value, &r); err != nil {
			return nil, fmt.Errorf("decode fill %s: %w", n.Key, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteTemplate removes a template together with its fill reports.
func (a *Archive) DeleteTemplate(ctx context.Context, hash string) error {
	if err := a.store.DeleteNode(ctx, templateKey(hash), true); err != nil {
		return fmt.Errorf("delete template %s: %w", hash, err)
	}
	return nil
}
