package api

import (
	"net/http"
	"regexp"

	"github.com/dgallion1/docfill/internal/archive"
	"github.com/go-chi/chi/v5"
)

var hashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func (s *Server) templateArchive(w http.ResponseWriter) *archive.Archive {
	arc := s.orchestrator.Archive()
	if arc == nil {
		jsonError(w, "template archive is not configured", http.StatusServiceUnavailable)
	}
	return arc
}

// handleListTemplates lists archived template analyses, newest first.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	arc := s.templateArchive(w)
	if arc == nil {
		return
	}
	recs, err := arc.ListTemplates(r.Context())
	if err != nil {
		jsonError(w, "failed to list templates: "+err.Error(), http.StatusBadGateway)
		return
	}
	if recs == nil {
		recs = []archive.TemplateRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": recs})
}

// handleGetTemplate returns one archived analysis with its fill reports.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if !hashRe.MatchString(hash) {
		jsonError(w, "invalid template hash", http.StatusBadRequest)
		return
	}
	arc := s.templateArchive(w)
	if arc == nil {
		return
	}
	rec, err := arc.Template(r.Context(), hash)
	if err != nil {
		jsonError(w, "failed to read template: "+err.Error(), http.StatusBadGateway)
		return
	}
	if rec == nil {
		jsonError(w, "template not found", http.StatusNotFound)
		return
	}
	fills, err := arc.ListFills(r.Context(), hash)
	if err != nil {
		jsonError(w, "failed to list fills: "+err.Error(), http.StatusBadGateway)
		return
	}
	if fills == nil {
		fills = []archive.FillReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": rec, "fills": fills})
}

// handleDeleteTemplate removes an archived template and its fill reports.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if !hashRe.MatchString(hash) {
		jsonError(w, "invalid template hash", http.StatusBadRequest)
		return
	}
	arc := s.templateArchive(w)
	if arc == nil {
		return
	}
	if err := arc.DeleteTemplate(r.Context(), hash); err != nil {
		jsonError(w, "failed to delete template: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": hash})
}
