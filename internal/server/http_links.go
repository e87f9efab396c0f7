package server

import (
	"net/http"

	"github.com/IgorAraujoV/agilean-core-api/internal/service"
)

// linkUpdate is the body of PATCH /v1/buildings/{id}/links/{link_id}.
type linkUpdate struct {
	Latency *int  `json:"latency"`
	Locked  *bool `json:"locked"`
}

// handleCreateLink handles POST /v1/buildings/{id}/links.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request, userID string) {
	var in service.LinkInput
	if !decode(w, r, &in) {
		return
	}
	res, err := s.svc.CreateLink(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleUpdateLink handles PATCH /v1/buildings/{id}/links/{link_id}.
func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request, userID string) {
	var in linkUpdate
	if !decode(w, r, &in) {
		return
	}
	if in.Latency == nil || in.Locked == nil {
		writeError(w, http.StatusBadRequest, "latency and locked are required")
		return
	}
	res, err := s.svc.UpdateLink(r.Context(), userID, r.PathValue("id"), r.PathValue("link_id"), *in.Latency, *in.Locked)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleToggleLock handles POST /v1/buildings/{id}/links/{link_id}/toggle-lock.
func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request, userID string) {
	res, err := s.svc.ToggleLock(r.Context(), userID, r.PathValue("id"), r.PathValue("link_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDeleteLink handles DELETE /v1/buildings/{id}/links/{link_id}.
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.DeleteLink(r.Context(), userID, r.PathValue("id"), r.PathValue("link_id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteSpace handles DELETE /v1/buildings/{id}/spaces/{space_id}.
func (s *Server) handleDeleteSpace(w http.ResponseWriter, r *http.Request, userID string) {
	ids, err := s.svc.DeleteSpace(r.Context(), userID, r.PathValue("id"), r.PathValue("space_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"space_ids": ids})
}
