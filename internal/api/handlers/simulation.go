package handlers

import (
	"net/http"
	"path/filepath"

	"railwatch/internal/api/response"
	"railwatch/internal/archive"
	"railwatch/internal/config"
	"railwatch/internal/logging"
	"railwatch/internal/network"
	"railwatch/internal/session"
	"railwatch/internal/timetable"
	"railwatch/pkg/types"
)

// SimulationHandler drives timetable generation: full simulation runs
// and operator-added trains.
type SimulationHandler struct {
	config   *config.Config
	sessions *session.Manager
	builder  *NetworkBuilder
	runs     *archive.Store
	logger   *logging.ComponentLogger
}

// NewSimulationHandler creates a simulation handler. The run archive
// is optional.
func NewSimulationHandler(cfg *config.Config, sessions *session.Manager, builder *NetworkBuilder, runs *archive.Store) *SimulationHandler {
	return &SimulationHandler{
		config:   cfg,
		sessions: sessions,
		builder:  builder,
		runs:     runs,
		logger:   logging.ForComponent("api"),
	}
}

// RunSimulationRequest parameterizes one simulation run. Omitted
// fields fall back to the configured defaults.
type RunSimulationRequest struct {
	NumTrains    int    `json:"num_trains"`
	StartTimeISO string `json:"start_time_iso"`
}

// SimulationResponse carries the generated network and schedule back
// to the dashboard.
type SimulationResponse struct {
	SessionID string            `json:"session_id"`
	Stations  []*types.Station  `json:"stations"`
	Sections  []types.Section   `json:"sections"`
	Schedule  []types.TrainStop `json:"schedule"`
}

// Run builds the network, generates a fresh schedule, loads both into
// the session, and mirrors the outputs to the data directory.
func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	req := RunSimulationRequest{
		NumTrains:    h.config.Data.NumTrains,
		StartTimeISO: h.config.Data.StartTime,
	}
	if err := decodeBody(r, &req); err != nil {
		response.WriteBadRequest(w, "Invalid JSON request", err.Error())
		return
	}
	if req.NumTrains <= 0 {
		response.WriteBadRequest(w, "num_trains must be positive")
		return
	}

	sess := resolveSession(h.sessions, w, r)
	if sess == nil {
		return
	}

	stations, sections, err := h.builder.Build()
	if err != nil {
		response.WriteServiceUnavailable(w, "Network data unavailable", err.Error())
		return
	}

	schedule, err := timetable.Generate(stations, sections, timetable.GeneratorOptions{
		NumTrains: req.NumTrains,
		StartTime: req.StartTimeISO,
		Seed:      h.config.Data.Seed,
	})
	if err != nil {
		response.WriteBadRequest(w, "Schedule generation failed", err.Error())
		return
	}

	sess.LoadNetwork(stations, sections)
	sess.SetSchedule(schedule)

	h.writeArtifacts(stations, sections, schedule)
	h.archiveRun(sess.ID, archive.RunKindSimulation, req.NumTrains, schedule)

	response.WriteSuccess(w, SimulationResponse{
		SessionID: sess.ID,
		Stations:  stationList(stations),
		Sections:  sections,
		Schedule:  schedule,
	})
}

// AddTrain builds an itinerary for an operator-supplied station chain
// and appends it to the session schedule.
func (h *SimulationHandler) AddTrain(w http.ResponseWriter, r *http.Request) {
	var req timetable.ItineraryRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteBadRequest(w, "Invalid JSON request", err.Error())
		return
	}
	if len(req.Stations) < 2 {
		response.WriteBadRequest(w, "At least two stations are required")
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

	stops, err := timetable.BuildItinerary(sess.Stations(), sess.Adjacency(), &req)
	if err != nil {
		response.WriteValidationError(w, "Itinerary could not be built", err.Error())
		return
	}

	sess.AppendSchedule(stops)
	h.writeUserSchedule(stops)
	h.archiveRun(sess.ID, archive.RunKindItinerary, 1, stops)

	response.WriteSuccess(w, map[string]interface{}{
		"session_id": sess.ID,
		"schedule":   stops,
	})
}

// writeArtifacts mirrors run outputs to the data directory for
// inspection. Failures are logged, not fatal: the session carries the
// authoritative copy.
func (h *SimulationHandler) writeArtifacts(stations map[string]*types.Station, sections []types.Section, schedule []types.TrainStop) {
	dir, err := h.config.GetDataDir()
	if err != nil {
		h.logger.Warn("Data directory unavailable, skipping run artifacts", "error", err.Error())
		return
	}

	if err := network.WriteStations(filepath.Join(dir, "master_stations.csv"), stations); err != nil {
		h.logger.Warn("Failed to write stations artifact", "error", err.Error())
	}
	if err := network.WriteSections(filepath.Join(dir, "augmented_sections.csv"), sections); err != nil {
		h.logger.Warn("Failed to write sections artifact", "error", err.Error())
	}
	if err := timetable.WriteSchedule(filepath.Join(dir, "train_schedule.csv"), schedule); err != nil {
		h.logger.Warn("Failed to write schedule artifact", "error", err.Error())
	}
}

// writeUserSchedule mirrors operator-added trains to their own CSV
func (h *SimulationHandler) writeUserSchedule(stops []types.TrainStop) {
	dir, err := h.config.GetDataDir()
	if err != nil {
		h.logger.Warn("Data directory unavailable, skipping user schedule", "error", err.Error())
		return
	}
	if err := timetable.WriteSchedule(filepath.Join(dir, "user_train_schedule.csv"), stops); err != nil {
		h.logger.Warn("Failed to write user schedule", "error", err.Error())
	}
}

// archiveRun records the run in the archive when one is configured
func (h *SimulationHandler) archiveRun(sessionID string, kind archive.RunKind, trains int, schedule []types.TrainStop) {
	if h.runs == nil {
		return
	}

	legs := 0
	for i := range schedule {
		if schedule[i].LegType != types.LegTypeOrigin {
			legs++
		}
	}

	rec := &archive.Record{
		SessionID:  sessionID,
		Kind:       kind,
		TrainCount: trains,
		LegCount:   legs,
		Summary:    map[string]interface{}{"stops": len(schedule)},
	}
	if err := h.runs.Append(rec); err != nil {
		h.logger.Warn("Failed to archive run", "error", err.Error())
	}
}
