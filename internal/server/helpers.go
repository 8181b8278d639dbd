package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"tabsplit/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON body into dst, capping its size and rejecting
// unknown fields.
func decodeJSON(r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// loadSession fetches the session named by the {id} path value, writing a
// 404 and returning nil when it doesn't exist.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id := r.PathValue("id")
	sess, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return sess
}

// writeSessionError maps session-layer errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownPerson), errors.Is(err, session.ErrUnknownItem):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrEmptyName), errors.Is(err, session.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Session operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
