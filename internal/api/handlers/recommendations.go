package handlers

import (
	"errors"
	"net/http"

	"railwatch/internal/api/response"
	"railwatch/internal/registry"
	"railwatch/internal/session"
)

// RecommendationHandler exposes the session's recommendation set.
type RecommendationHandler struct {
	sessions *session.Manager
}

// NewRecommendationHandler creates a recommendation handler
func NewRecommendationHandler(sessions *session.Manager) *RecommendationHandler {
	return &RecommendationHandler{sessions: sessions}
}

// List returns the session's open recommendations
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}

	recommendations := sess.Recommendations()
	response.WriteSuccess(w, map[string]interface{}{
		"session_id":      sess.ID,
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}

// Accept marks a recommendation as taken and removes it from the set
func (h *RecommendationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := pathParamID(r, "id")
	if id == "" {
		response.WriteBadRequest(w, "Recommendation ID is required")
		return
	}

	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}

	rec, err := sess.AcceptRecommendation(id)
	if err != nil {
		if errors.Is(err, registry.ErrRecommendationNotFound) {
			response.WriteNotFound(w, "Recommendation not found", id)
		} else {
			response.WriteInternalError(w, "Failed to accept recommendation", err.Error())
		}
		return
	}

	response.WriteSuccess(w, map[string]interface{}{
		"recommendation": rec,
		"remaining":      len(sess.Recommendations()),
	})
}
