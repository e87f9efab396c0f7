package server

import (
	"net/http"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/service"
)

// stageUpdate is the body of PATCH /v1/buildings/{id}/stages/{stage_id}.
type stageUpdate struct {
	Duration *int `json:"duration"`
	Latency  *int `json:"latency"`
}

// precedenceUpdate is the body of PATCH
// /v1/buildings/{id}/precedences/{precedence_id}.
type precedenceUpdate struct {
	Opening *int `json:"opening"`
	Latency *int `json:"latency"`
}

// moveInput is the body of POST /v1/buildings/{id}/packages/{package_id}/move.
// Exactly one of Column and Date is set.
type moveInput struct {
	Column *int   `json:"column,omitempty"`
	Date   string `json:"date,omitempty"`
}

// handleAddStage handles POST /v1/buildings/{id}/stages.
func (s *Server) handleAddStage(w http.ResponseWriter, r *http.Request, userID string) {
	var in service.StageInput
	if !decode(w, r, &in) {
		return
	}
	res, err := s.svc.AddStage(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleUpdateStage handles PATCH /v1/buildings/{id}/stages/{stage_id}.
func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request, userID string) {
	var in stageUpdate
	if !decode(w, r, &in) {
		return
	}
	if in.Duration == nil || in.Latency == nil {
		writeError(w, http.StatusBadRequest, "duration and latency are required")
		return
	}
	res, err := s.svc.UpdateStage(r.Context(), userID, r.PathValue("id"), r.PathValue("stage_id"), *in.Duration, *in.Latency)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRemoveStage handles DELETE /v1/buildings/{id}/stages/{stage_id}.
func (s *Server) handleRemoveStage(w http.ResponseWriter, r *http.Request, userID string) {
	s.writePatch(w, r)(s.svc.RemoveStage(r.Context(), userID, r.PathValue("id"), r.PathValue("stage_id")))
}

// handleAddPrecedence handles POST /v1/buildings/{id}/precedences.
func (s *Server) handleAddPrecedence(w http.ResponseWriter, r *http.Request, userID string) {
	var in service.PrecedenceInput
	if !decode(w, r, &in) {
		return
	}
	res, err := s.svc.AddPrecedence(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleUpdatePrecedence handles PATCH
// /v1/buildings/{id}/precedences/{precedence_id}.
func (s *Server) handleUpdatePrecedence(w http.ResponseWriter, r *http.Request, userID string) {
	var in precedenceUpdate
	if !decode(w, r, &in) {
		return
	}
	if in.Opening == nil || in.Latency == nil {
		writeError(w, http.StatusBadRequest, "opening and latency are required")
		return
	}
	res, err := s.svc.UpdatePrecedence(r.Context(), userID, r.PathValue("id"), r.PathValue("precedence_id"), *in.Opening, *in.Latency)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRemovePrecedence handles DELETE
// /v1/buildings/{id}/precedences/{precedence_id}.
func (s *Server) handleRemovePrecedence(w http.ResponseWriter, r *http.Request, userID string) {
	s.writePatch(w, r)(s.svc.RemovePrecedence(r.Context(), userID, r.PathValue("id"), r.PathValue("precedence_id")))
}

// handleMove handles POST /v1/buildings/{id}/packages/{package_id}/move.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, userID string) {
	var in moveInput
	if !decode(w, r, &in) {
		return
	}
	bid, pid := r.PathValue("id"), r.PathValue("package_id")
	switch {
	case in.Column != nil && in.Date == "":
		s.writePatch(w, r)(s.svc.Move(r.Context(), userID, bid, pid, *in.Column))
	case in.Column == nil && in.Date != "":
		date, err := time.Parse(model.DateLayout, in.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be formatted as "+model.DateLayout)
			return
		}
		s.writePatch(w, r)(s.svc.MoveToDate(r.Context(), userID, bid, pid, date))
	default:
		writeError(w, http.StatusBadRequest, "exactly one of column and date is required")
	}
}

// handleStack handles POST /v1/buildings/{id}/packages/{package_id}/stack.
func (s *Server) handleStack(w http.ResponseWriter, r *http.Request, userID string) {
	s.writePatch(w, r)(s.svc.Stack(r.Context(), userID, r.PathValue("id"), r.PathValue("package_id")))
}

// handleUnstack handles POST /v1/buildings/{id}/packages/{package_id}/unstack.
func (s *Server) handleUnstack(w http.ResponseWriter, r *http.Request, userID string) {
	s.writePatch(w, r)(s.svc.Unstack(r.Context(), userID, r.PathValue("id"), r.PathValue("package_id")))
}

// writePatch returns a sink for a service call that yields a patch.
func (s *Server) writePatch(w http.ResponseWriter, r *http.Request) func(*propagation.Patch, error) {
	return func(p *propagation.Patch, err error) {
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
