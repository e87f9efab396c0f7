package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/buildings", s.handleListBuildings)
	mux.HandleFunc("GET /v1/buildings/{id}", s.user(s.handleGetBuilding))
	mux.HandleFunc("GET /v1/buildings/{id}/events", s.handleEventStream)
	mux.HandleFunc("GET /v1/buildings/{id}/lines/{line_id}/packages", s.user(s.handleLinePackages))

	mux.HandleFunc("POST /v1/buildings/{id}/stages", s.user(s.handleAddStage))
	mux.HandleFunc("PATCH /v1/buildings/{id}/stages/{stage_id}", s.user(s.handleUpdateStage))
	mux.HandleFunc("DELETE /v1/buildings/{id}/stages/{stage_id}", s.user(s.handleRemoveStage))
	mux.HandleFunc("POST /v1/buildings/{id}/precedences", s.user(s.handleAddPrecedence))
	mux.HandleFunc("PATCH /v1/buildings/{id}/precedences/{precedence_id}", s.user(s.handleUpdatePrecedence))
	mux.HandleFunc("DELETE /v1/buildings/{id}/precedences/{precedence_id}", s.user(s.handleRemovePrecedence))

	mux.HandleFunc("POST /v1/buildings/{id}/packages/{package_id}/move", s.user(s.handleMove))
	mux.HandleFunc("POST /v1/buildings/{id}/packages/{package_id}/stack", s.user(s.handleStack))
	mux.HandleFunc("POST /v1/buildings/{id}/packages/{package_id}/unstack", s.user(s.handleUnstack))

	mux.HandleFunc("POST /v1/buildings/{id}/links", s.user(s.handleCreateLink))
	mux.HandleFunc("PATCH /v1/buildings/{id}/links/{link_id}", s.user(s.handleUpdateLink))
	mux.HandleFunc("POST /v1/buildings/{id}/links/{link_id}/toggle-lock", s.user(s.handleToggleLock))
	mux.HandleFunc("DELETE /v1/buildings/{id}/links/{link_id}", s.user(s.handleDeleteLink))

	mux.HandleFunc("DELETE /v1/buildings/{id}/spaces/{space_id}", s.user(s.handleDeleteSpace))
	return AuthMiddleware(authToken, mux)
}

// userHandler is a building route handler that receives the caller id.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// user rejects requests without the X-User-ID header.
func (s *Server) user(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			writeError(w, http.StatusBadRequest, userHeader+" header is required")
			return
		}
		h(w, r, userID)
	}
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListBuildings handles GET /v1/buildings.
func (s *Server) handleListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := s.svc.Buildings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildings)
}

// handleGetBuilding handles GET /v1/buildings/{id}.
func (s *Server) handleGetBuilding(w http.ResponseWriter, r *http.Request, userID string) {
	ds, err := s.svc.Dataset(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// handleLinePackages handles GET /v1/buildings/{id}/lines/{line_id}/packages.
func (s *Server) handleLinePackages(w http.ResponseWriter, r *http.Request, userID string) {
	views, err := s.svc.LinePackages(r.Context(), userID, r.PathValue("id"), r.PathValue("line_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
