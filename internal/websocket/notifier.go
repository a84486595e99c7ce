package websocket

import (
	"railwatch/pkg/types"
)

// The hub satisfies the session manager's Notifier contract: each
// registry mutation becomes one feed event.

// ConflictsReplaced announces a wholesale conflict set replacement
func (h *Hub) ConflictsReplaced(sessionID string, conflicts []types.Conflict) {
	h.Broadcast(NewFeedEvent(EventConflictsReplaced, sessionID, map[string]interface{}{
		"count":     len(conflicts),
		"conflicts": conflicts,
	}))
}

// ConflictRegistered announces an operator acknowledgment
func (h *Hub) ConflictRegistered(sessionID string, conflict types.Conflict) {
	h.Broadcast(NewFeedEvent(EventConflictRegistered, sessionID, conflict))
}

// ConflictConfirmed announces a confirmed mitigation
func (h *Hub) ConflictConfirmed(sessionID string, conflict types.Conflict) {
	h.Broadcast(NewFeedEvent(EventConflictConfirmed, sessionID, conflict))
}

// RecommendationsReplaced announces a fresh recommendation batch
func (h *Hub) RecommendationsReplaced(sessionID string, recommendations []types.Recommendation) {
	h.Broadcast(NewFeedEvent(EventRecommendationsReplaced, sessionID, map[string]interface{}{
		"count":           len(recommendations),
		"recommendations": recommendations,
	}))
}

// RecommendationAccepted announces an accepted recommendation
func (h *Hub) RecommendationAccepted(sessionID string, recommendation types.Recommendation) {
	h.Broadcast(NewFeedEvent(EventRecommendationAccepted, sessionID, recommendation))
}
