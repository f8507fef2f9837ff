package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandcrew/brandcrew/internal/crew"
	"github.com/brandcrew/brandcrew/internal/repository"
	"github.com/brandcrew/brandcrew/internal/services"
)

type createProjectRequest struct {
	Topic       string `json:"topic"`
	Guidelines  string `json:"guidelines"`
	ProjectName string `json:"project_name"`
	APIKey      string `json:"api_key"`
}

// createProject accepts a topic and brand guidelines, kicks the pipeline
// off in the background, and returns the pending project immediately.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var body createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := s.projectSvc.Submit(r.Context(), services.SubmitInput{
		Topic:       body.Topic,
		Guidelines:  body.Guidelines,
		ProjectName: body.ProjectName,
		APIKey:      body.APIKey,
	})
	if err != nil {
		var verr *crew.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": project})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projectSvc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if projects == nil {
		projects = []*crew.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "projects": projects})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := s.projectSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": project})
}

// updateProject applies a raw field merge onto a project. Kept for parity
// with the project editing UI; it does not touch a run in flight.
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := s.projectSvc.Merge(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": project})
}
