// Package server exposes the schedule service over HTTP and serves gRPC
// health checks.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/IgorAraujoV/agilean-core-api/internal/service"
)

// userHeader carries the caller's identity. Every building route requires
// it; the session cache keeps one graph per user.
const userHeader = "X-User-ID"

// Server serves the schedule API.
type Server struct {
	svc    *service.Service
	hub    *EventHub
	logger *slog.Logger
}

// New returns a Server for svc. Events published to hub are streamed to SSE
// clients; a nil hub disables the stream. A nil logger falls back to
// slog.Default().
func New(svc *service.Service, hub *EventHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, hub: hub, logger: logger}
}

// writeServiceError maps service errors onto HTTP status codes. Unexpected
// errors are logged and reported as 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
