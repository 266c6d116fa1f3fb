package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/figops/internal/export"
	"github.com/dgallion1/figops/internal/pipeline"
	"github.com/dgallion1/figops/internal/tasks"
)

// latestResult writes 404 when no import has completed yet.
func (s *Server) latestResult(w http.ResponseWriter) (*pipeline.Job, *pipeline.Result, bool) {
	job := s.orchestrator.Latest()
	if job == nil || job.Result() == nil {
		jsonError(w, "no completed import", http.StatusNotFound)
		return nil, nil, false
	}
	return job, job.Result(), true
}

func (s *Server) handleGetScreen(w http.ResponseWriter, r *http.Request) {
	job, res, ok := s.latestResult(w)
	if !ok {
		return
	}
	figmaID := chi.URLParam(r, "figmaID")
	rec, found := res.Index.Find(figmaID)
	if !found {
		jsonError(w, "screen not found", http.StatusNotFound)
		return
	}

	descHTML := ""
	if rec.Description != nil {
		var err error
		if descHTML, err = export.DescriptionHTML(*rec.Description); err != nil {
			s.log.Warn("description render failed", "figma_id", figmaID, "error", err)
		}
	}

	var summary tasks.Summary
	plan, err := s.plans.Get(r.Context(), figmaID)
	switch {
	case err == nil:
		summary = plan.Summary()
	case !errors.Is(err, tasks.ErrNotFound):
		s.log.Warn("plan lookup failed", "figma_id", figmaID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":          job.ID,
		"screen":          rec,
		"descriptionHtml": descHTML,
		"plan":            summary,
	})
}

func (s *Server) handleCoverPNG(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.latestResult(w)
	if !ok {
		return
	}
	cover := res.Index.Cover(chi.URLParam(r, "prefix"))
	if cover == nil {
		jsonError(w, "cover not found", http.StatusNotFound)
		return
	}

	var width uint64
	if v := r.URL.Query().Get("width"); v != "" {
		var err error
		if width, err = strconv.ParseUint(v, 10, 32); err != nil || width == 0 {
			jsonError(w, "width must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	var buf bytes.Buffer
	if err := export.RenderCoverPNG(&buf, cover, uint(width)); err != nil {
		s.log.Error("cover render failed", "error", err)
		jsonError(w, "cover render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
