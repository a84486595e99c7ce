package handlers

import (
	"net/http"
	"strconv"

	"railwatch/internal/api/response"
	"railwatch/internal/archive"
)

// RunsHandler serves archived run summaries.
type RunsHandler struct {
	runs *archive.Store
}

// NewRunsHandler creates a runs handler. A nil store means the archive
// is disabled and the endpoint reports unavailable.
func NewRunsHandler(runs *archive.Store) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// List returns recent runs, optionally filtered by session
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		response.WriteServiceUnavailable(w, "Run archive disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.WriteBadRequest(w, "Invalid limit", raw)
			return
		}
		limit = n
	}

	var (
		records []*archive.Record
		err     error
	)
	if sid := r.URL.Query().Get("session_id"); sid != "" {
		records, err = h.runs.BySession(r.Context(), sid, limit)
	} else {
		records, err = h.runs.ListRecent(r.Context(), limit)
	}
	if err != nil {
		response.WriteInternalError(w, "Failed to list runs", err.Error())
		return
	}

	response.WriteSuccess(w, map[string]interface{}{
		"runs":  records,
		"count": len(records),
	})
}
