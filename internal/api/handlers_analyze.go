package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/archive"
	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/parser"
	"github.com/dgallion1/docfill/internal/style"
)

// analysis is the JSON view of one analyzed template.
type analysis struct {
	Filename      string                    `json:"filename"`
	Hash          string                    `json:"hash,omitempty"`
	Confidence    float64                   `json:"confidence"`
	Summary       *analyzer.Summary         `json:"summary,omitempty"`
	Zones         []*analyzer.Zone          `json:"zones,omitempty"`
	StyleRules    map[string]doctree.Format `json:"style_rules,omitempty"`
	StyleWarnings []string                  `json:"style_warnings,omitempty"`
	Error         string                    `json:"error,omitempty"`
}

func (s *Server) analyze(ctx context.Context, filename string, data []byte, withZones bool) analysis {
	out := analysis{Filename: filename, Hash: archive.HashTemplate(data)}
	st, err := s.orchestrator.Filler().Analyze(filename, data)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	sum := st.Summary()
	out.Confidence = st.Confidence
	out.Summary = &sum
	out.StyleWarnings = style.CheckConsistency(st.StyleRules, style.DefaultLimits())
	if withZones {
		out.Zones = st.InOrder()
		out.StyleRules = st.StyleRules
	}

	if arc := s.orchestrator.Archive(); arc != nil {
		if err := arc.RecordAnalysis(ctx, out.Hash, filename, sum); err != nil {
			s.log.Warn("archive analysis failed", "filename", filename, "error", err)
		}
	}
	return out
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	filename := sanitizeFilename(files[0].Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	data, err := readUpload(files[0], s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}

	res := s.analyze(r.Context(), filename, data, true)
	if res.Error != "" {
		jsonError(w, res.Error, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleBatchAnalyze analyzes several templates concurrently. Per-file
// failures are reported inline.
func (s *Server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]analysis, len(files))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(max(s.cfg.WorkerCount, 1))
	for i, fh := range files {
		g.Go(func() error {
			filename := sanitizeFilename(fh.Filename)
			if !parser.IsSupportedExtension(filename) {
				results[i] = analysis{Filename: filename, Error: fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))}
				return nil
			}
			data, err := readUpload(fh, s.cfg.MaxUploadBytes)
			if err != nil {
				results[i] = analysis{Filename: filename, Error: err.Error()}
				return nil
			}
			results[i] = s.analyze(ctx, filename, data, false)
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"templates": results})
}
