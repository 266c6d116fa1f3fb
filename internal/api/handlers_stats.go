package api

import (
	"net/http"

	"github.com/dgallion1/figops/internal/refine"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	var snap refine.StatsSnapshot
	if s.refineStats != nil {
		snap = s.refineStats.Snapshot()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":    s.cfg.RefineProvider,
		"refine":      snap,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
