package handlers

import (
	"errors"
	"net/http"

	"railwatch/internal/api/response"
	"railwatch/internal/archive"
	"railwatch/internal/logging"
	"railwatch/internal/registry"
	"railwatch/internal/session"
	"railwatch/pkg/types"
)

// ConflictHandler exposes the session's conflict registry: the current
// set, re-detection, and the register/confirm lifecycle.
type ConflictHandler struct {
	sessions *session.Manager
	runs     *archive.Store
	logger   *logging.ComponentLogger
}

// NewConflictHandler creates a conflict handler
func NewConflictHandler(sessions *session.Manager, runs *archive.Store) *ConflictHandler {
	return &ConflictHandler{
		sessions: sessions,
		runs:     runs,
		logger:   logging.ForComponent("api"),
	}
}

// List returns the session's conflicts with their lifecycle state
func (h *ConflictHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}

	response.WriteSuccess(w, map[string]interface{}{
		"session_id":     sess.ID,
		"conflicts":      sess.Conflicts(),
		"all_registered": sess.AllRegistered(),
	})
}

// Detect sweeps the session timetable and replaces the registry set.
// Lifecycle state carries forward for conflicts whose id is unchanged.
func (h *ConflictHandler) Detect(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}
	if sess.Info().Stops == 0 {
		response.WriteBadRequest(w, "Session has no schedule loaded", "run a simulation or add trains first")
		return
	}

	result, err := sess.DetectConflicts(r.Context())
	if err != nil {
		response.WriteInternalError(w, "Conflict detection failed", err.Error())
		return
	}

	h.archiveDetection(sess, result.ConflictsFound, result.TotalLegs, result.SkippedStops)

	response.WriteSuccess(w, result)
}

// Register acknowledges a detected conflict
func (h *ConflictHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "register")
}

// Confirm locks in a registered conflict
func (h *ConflictHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm")
}

// transition applies one lifecycle step to the conflict named in the URL
func (h *ConflictHandler) transition(w http.ResponseWriter, r *http.Request, step string) {
	id := pathParamID(r, "id")
	if id == "" {
		response.WriteBadRequest(w, "Conflict ID is required")
		return
	}

	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}

	var (
		conflict types.Conflict
		err      error
	)
	if step == "register" {
		conflict, err = sess.RegisterConflict(id)
	} else {
		conflict, err = sess.ConfirmConflict(id)
	}

	switch {
	case errors.Is(err, registry.ErrConflictNotFound):
		response.WriteNotFound(w, "Conflict not found", id)
	case errors.Is(err, registry.ErrInvalidTransition):
		response.WriteConflict(w, "Invalid lifecycle transition", err.Error())
	case err != nil:
		response.WriteInternalError(w, "Lifecycle transition failed", err.Error())
	default:
		response.WriteSuccess(w, map[string]interface{}{
			"conflict":       conflict,
			"all_registered": sess.AllRegistered(),
		})
	}
}

// archiveDetection records the detection run when an archive is configured
func (h *ConflictHandler) archiveDetection(sess *session.Session, conflicts, legs, skipped int) {
	if h.runs == nil {
		return
	}

	info := sess.Info()
	rec := &archive.Record{
		SessionID:     sess.ID,
		Kind:          archive.RunKindDetection,
		TrainCount:    info.Trains,
		LegCount:      legs,
		ConflictCount: conflicts,
		SkippedStops:  skipped,
	}
	if err := h.runs.Append(rec); err != nil {
		h.logger.Warn("Failed to archive detection run", "error", err.Error())
	}
}
