package handlers

import (
	"net/http"
	"time"

	"railwatch/internal/analysis"
	"railwatch/internal/api/response"
	"railwatch/internal/archive"
	"railwatch/internal/engine"
	"railwatch/internal/logging"
	"railwatch/internal/session"
	"railwatch/pkg/types"
)

// ScenarioHandler runs the analysis pipeline over operator scenarios.
type ScenarioHandler struct {
	sessions *session.Manager
	builder  *NetworkBuilder
	analyzer *analysis.Analyzer
	runs     *archive.Store
	logger   *logging.ComponentLogger
}

// NewScenarioHandler creates a scenario analysis handler
func NewScenarioHandler(sessions *session.Manager, builder *NetworkBuilder, analyzer *analysis.Analyzer, runs *archive.Store) *ScenarioHandler {
	return &ScenarioHandler{
		sessions: sessions,
		builder:  builder,
		analyzer: analyzer,
		runs:     runs,
		logger:   logging.ForComponent("api"),
	}
}

// ScenarioResponse is the analysis payload the dashboard renders.
// Conflict windows stay in minute offsets here; only the registry copy
// is converted to the epoch axis.
type ScenarioResponse struct {
	Recommendations []types.Recommendation `json:"recommendations"`
	Analysis        *string                `json:"analysis"`
	AnalysisStruct  types.AnalysisReport   `json:"analysis_struct"`
	Conflicts       []types.RawConflict    `json:"conflicts"`
}

// Analyze routes the scenario's trains, detects block contention,
// decides precedence, and merges the classified conflicts and
// recommendations into the session registry.
func (h *ScenarioHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var scenario types.Scenario
	if err := decodeBody(r, &scenario); err != nil {
		response.WriteBadRequest(w, "Invalid JSON request", err.Error())
		return
	}
	if len(scenario.Trains) == 0 {
		response.WriteBadRequest(w, "Scenario requires at least one train")
		return
	}

	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}
	if err := h.builder.Ensure(sess); err != nil {
		response.WriteServiceUnavailable(w, "Network data unavailable", err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), sess.Graph(), &scenario)
	if err != nil {
		response.WriteInternalError(w, "Scenario analysis failed", err.Error())
		return
	}

	// Scenario windows are offsets from "now"; anchor them so the
	// registry copy lives on the same axis as detection conflicts.
	reference := time.Now().UTC()
	candidates := analysis.CandidatesFromRaw(result.Conflicts, reference)
	conflicts := make([]types.Conflict, 0, len(candidates))
	for _, cand := range candidates {
		conflicts = append(conflicts, engine.BuildConflict(cand, reference))
	}
	sess.MergeAnalysis(conflicts, result.Recommendations)

	h.archiveRun(sess.ID, &scenario, result)

	response.WriteSuccess(w, ScenarioResponse{
		Recommendations: result.Recommendations,
		Analysis:        result.Narrative,
		AnalysisStruct:  result.Report,
		Conflicts:       result.Conflicts,
	})
}

// archiveRun records the scenario run when an archive is configured
func (h *ScenarioHandler) archiveRun(sessionID string, scenario *types.Scenario, result *analysis.Result) {
	if h.runs == nil {
		return
	}

	rec := &archive.Record{
		SessionID:     sessionID,
		Kind:          archive.RunKindScenario,
		TrainCount:    len(scenario.Trains),
		ConflictCount: len(result.Conflicts),
		Summary: map[string]interface{}{
			"routed_trains":   len(result.Trains),
			"recommendations": len(result.Recommendations),
			"narrative":       result.Narrative != nil,
		},
	}
	if err := h.runs.Append(rec); err != nil {
		h.logger.Warn("Failed to archive scenario run", "error", err.Error())
	}
}
