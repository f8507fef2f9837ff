package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandcrew/brandcrew/internal/repository"
)

// getRun returns the run record and, once completed, the decomposed
// outcome. Polling before completion returns the current status without
// blocking.
// GET /api/runs/{id}
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, outcome, err := s.projectSvc.RunStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"success": true, "run": run}
	if outcome != nil {
		resp["outcome"] = outcome
	}
	writeJSON(w, http.StatusOK, resp)
}
