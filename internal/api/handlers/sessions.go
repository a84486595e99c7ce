package handlers

import (
	"net/http"

	"railwatch/internal/api/response"
	"railwatch/internal/session"
)

// SessionHandler manages operator sessions.
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler creates a session handler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List returns all sessions, newest first, plus manager stats
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]interface{}{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// Create starts a fresh session and returns its descriptor
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()
	response.WriteSuccess(w, sess.Info(), "Session created")
}
