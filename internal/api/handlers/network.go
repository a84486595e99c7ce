package handlers

import (
	"net/http"

	"railwatch/internal/api/response"
	"railwatch/internal/session"
)

// NetworkHandler serves the session's station and section sets.
type NetworkHandler struct {
	sessions *session.Manager
	builder  *NetworkBuilder
}

// NewNetworkHandler creates a network handler
func NewNetworkHandler(sessions *session.Manager, builder *NetworkBuilder) *NetworkHandler {
	return &NetworkHandler{sessions: sessions, builder: builder}
}

// Stations returns the session's stations, code-ordered
func (h *NetworkHandler) Stations(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}
	if err := h.builder.Ensure(sess); err != nil {
		response.WriteServiceUnavailable(w, "Network data unavailable", err.Error())
		return
	}

	stations := stationList(sess.Stations())
	response.WriteSuccess(w, map[string]interface{}{
		"stations": stations,
		"count":    len(stations),
	})
}

// Sections returns the session's directed sections, real and inferred
func (h *NetworkHandler) Sections(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}
	if err := h.builder.Ensure(sess); err != nil {
		response.WriteServiceUnavailable(w, "Network data unavailable", err.Error())
		return
	}

	sections := sess.Sections()
	response.WriteSuccess(w, map[string]interface{}{
		"sections": sections,
		"count":    len(sections),
	})
}
