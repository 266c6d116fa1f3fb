package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/figops/internal/tasks"
)

const maxPlanBytes = 1 << 20

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.Get(r.Context(), chi.URLParam(r, "figmaID"))
	if err != nil {
		s.planError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	var plan tasks.Plan
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlanBytes)).Decode(&plan); err != nil {
		jsonError(w, "invalid plan json: "+err.Error(), http.StatusBadRequest)
		return
	}
	plan.FigmaID = chi.URLParam(r, "figmaID")
	if err := s.plans.Put(r.Context(), &plan); err != nil {
		s.planError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.plans.Delete(r.Context(), chi.URLParam(r, "figmaID")); err != nil {
		s.planError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type planListEntry struct {
	FigmaID string        `json:"figmaId"`
	Summary tasks.Summary `json:"summary"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	list, err := s.plans.List(r.Context())
	if err != nil {
		s.planError(w, err)
		return
	}
	out := make([]planListEntry, 0, len(list))
	for _, p := range list {
		out = append(out, planListEntry{FigmaID: p.FigmaID, Summary: p.Summary()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": out, "count": len(out)})
}

func (s *Server) planError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		jsonError(w, "plan not found", http.StatusNotFound)
	case errors.Is(err, tasks.ErrInvalid):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("plan store error", "error", err)
		jsonError(w, "plan store error", http.StatusBadGateway)
	}
}
