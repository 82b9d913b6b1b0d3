package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docfill/internal/insert"
	"github.com/dgallion1/docfill/internal/parser"
	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleFill queues a fill job. The form carries the template file, and
// either a content file or a topic to generate from.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	templates := r.MultipartForm.File["template"]
	if len(templates) == 0 {
		jsonError(w, "template is required", http.StatusBadRequest)
		return
	}
	filename := sanitizeFilename(templates[0].Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	strategy := r.FormValue("strategy")
	if _, err := insert.ParseStrategy(strategy); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	topic := strings.TrimSpace(r.FormValue("topic"))
	contents := r.MultipartForm.File["content"]
	switch {
	case len(contents) == 0 && topic == "":
		jsonError(w, "content or topic is required", http.StatusBadRequest)
		return
	case len(contents) == 0 && s.claude == nil:
		jsonError(w, "content generation is not configured", http.StatusBadRequest)
		return
	}

	data, err := readUpload(templates[0], s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}

	job := pipeline.NewJob(filename, data)
	job.Topic = topic
	job.Strategy = strategy
	if len(contents) > 0 {
		cdata, err := readUpload(contents[0], s.cfg.MaxUploadBytes)
		if err != nil {
			jsonError(w, err.Error(), uploadStatus(err))
			return
		}
		job.SetContent(sanitizeFilename(contents[0].Filename), cdata)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"poll_url":   fmt.Sprintf("/api/fill/%s/status", job.ID),
		"result_url": fmt.Sprintf("/api/fill/%s/result", job.ID),
	})
}

func (s *Server) handleFillStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleFillResult downloads the filled document.
func (s *Server) handleFillResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	data, name, contentType, ok := job.Output()
	if !ok {
		if snap := job.Snapshot(); !snap.Status.Done() {
			jsonError(w, "job not finished", http.StatusConflict)
			return
		}
		jsonError(w, "job produced no document", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Fill-Status", string(job.Snapshot().Status))
	_, _ = w.Write(data)
}
