package api

import (
	"encoding/json"
	"net/http"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/models"
)

type resolveRequest struct {
	Outcome *models.Outcome `json:"outcome"`
}

func (s *Server) handleResolveMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "market")
	if err != nil {
		writeError(w, err)
		return
	}

	var req resolveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, core.New(core.KindValidation, "invalid request body: %v", err))
			return
		}
	}

	result, err := s.Resolver.Resolve(r.Context(), id, req.Outcome, "manual")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetResolution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "market")
	if err != nil {
		writeError(w, err)
		return
	}

	resolution, err := s.Store.GetResolution(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

// handleAdminSchedulerTick forces one resolution-scheduler pass on
// demand, useful for operators and for tests that don't want to wait
// on the real ticker.
func (s *Server) handleAdminSchedulerTick(w http.ResponseWriter, r *http.Request) {
	s.Scheduler.Tick(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "tick complete"})
}
