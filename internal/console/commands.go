package console

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"railwatch/internal/analysis"
	"railwatch/internal/engine"
	"railwatch/internal/network"
	"railwatch/internal/timetable"
	"railwatch/pkg/types"
)

// cmdLoad assembles the network from the configured CSVs into the
// session.
func (c *Console) cmdLoad() (string, error) {
	stations, sections, err := network.Assemble(network.AssembleOptions{
		CoordStationsCSV: c.cfg.Data.CoordStationsCSV,
		StationsCSV:      c.cfg.Data.StationsCSV,
		SectionsCSV:      c.cfg.Data.SectionsCSV,
		KNearest:         c.cfg.Data.KNearest,
		AvgSpeedKmph:     c.cfg.Data.AvgSpeedKmph,
	})
	if err != nil {
		return "", err
	}
	c.sess.LoadNetwork(stations, sections)

	inferred := 0
	for i := range sections {
		if sections[i].LegType == types.LegTypeInferred {
			inferred++
		}
	}
	return fmt.Sprintf("Loaded %d stations and %d sections (%d inferred).",
		len(stations), len(sections), inferred), nil
}

// ensureNetwork loads the network when the session doesn't have one
// yet, so schedule commands work without an explicit load first.
func (c *Console) ensureNetwork() error {
	if c.sess.HasNetwork() {
		return nil
	}
	summary, err := c.cmdLoad()
	if err != nil {
		return fmt.Errorf("network not loaded: %w", err)
	}
	c.printInfo(summary)
	return nil
}

// cmdGenerate simulates a fresh schedule over the loaded network.
func (c *Console) cmdGenerate(args []string) (string, error) {
	if err := c.ensureNetwork(); err != nil {
		return "", err
	}

	opts := timetable.GeneratorOptions{
		NumTrains: c.cfg.Data.NumTrains,
		StartTime: c.cfg.Data.StartTime,
		Seed:      c.cfg.Data.Seed,
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return "", fmt.Errorf("train count must be a positive number, got %q", args[0])
		}
		opts.NumTrains = n
	}
	if len(args) > 1 {
		opts.StartTime = args[1]
	}

	schedule, err := timetable.Generate(c.sess.Stations(), c.sess.Sections(), opts)
	if err != nil {
		return "", err
	}
	c.sess.SetSchedule(schedule)

	trains := countTrains(schedule)
	if trains == 0 {
		return "Generated no trains; the network has no routes long enough.", nil
	}
	return fmt.Sprintf("Generated %d trains (%d stops) starting %s.",
		trains, len(schedule), opts.StartTime), nil
}

// cmdAdd books an operator itinerary over an explicit station chain.
func (c *Console) cmdAdd(args []string) (string, error) {
	if len(args) < 3 {
		return "", fmt.Errorf("usage: add <train-id> <code> <code...> [start=<iso>] [priority=<level>]")
	}
	if err := c.ensureNetwork(); err != nil {
		return "", err
	}

	req := timetable.ItineraryRequest{
		TrainID:   args[0],
		StartTime: c.cfg.Data.StartTime,
	}
	for _, arg := range args[1:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			req.Stations = append(req.Stations, strings.ToUpper(arg))
			continue
		}
		switch strings.ToLower(key) {
		case "start":
			req.StartTime = value
		case "priority":
			req.PriorityLevel = parsePriority(value)
		case "type":
			req.TrainType = types.TrainType(value)
		default:
			return "", fmt.Errorf("unknown option %q", key)
		}
	}
	if len(req.Stations) < 2 {
		return "", fmt.Errorf("at least two station codes are required")
	}

	stops, err := timetable.BuildItinerary(c.sess.Stations(), c.sess.Adjacency(), &req)
	if err != nil {
		return "", err
	}
	c.sess.AppendSchedule(stops)

	return fmt.Sprintf("Booked %s over %d stations (%s to %s); schedule now has %d stops.",
		stops[0].TrainID, len(stops), req.Stations[0], req.Stations[len(req.Stations)-1],
		len(c.sess.Schedule())), nil
}

// cmdDetect sweeps the session schedule and replaces the registry set.
func (c *Console) cmdDetect(ctx context.Context) (string, error) {
	if len(c.sess.Schedule()) == 0 {
		return "", fmt.Errorf("no schedule loaded; run generate or add first")
	}

	result, err := c.sess.DetectConflicts(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Swept %d legs from %d stops (%d skipped): ",
		result.TotalLegs, result.TotalStops, result.SkippedStops)
	if result.ConflictsFound == 0 {
		b.WriteString(c.okColor.Sprint("no conflicts."))
		return b.String(), nil
	}

	b.WriteString(c.errorColor.Sprintf("%d conflicts.", result.ConflictsFound))
	for i, cf := range result.Conflicts {
		b.WriteString("\n")
		b.WriteString(formatConflict(i, cf))
	}
	return b.String(), nil
}

// cmdConflicts lists the registry set with lifecycle states.
func (c *Console) cmdConflicts() (string, error) {
	conflicts := c.sess.Conflicts()
	if len(conflicts) == 0 {
		return "No conflicts tracked; run detect or analyze first.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d conflicts tracked:", len(conflicts))
	for i, cf := range conflicts {
		b.WriteString("\n")
		b.WriteString(formatConflict(i, cf))
	}
	if c.sess.AllRegistered() {
		b.WriteString("\n")
		b.WriteString(c.okColor.Sprint("All conflicts registered."))
	}
	return b.String(), nil
}

// cmdTransition applies register/confirm to a conflict named by list
// position or full id.
func (c *Console) cmdTransition(args []string, step string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: %s <n|id>", step)
	}
	id, err := c.resolveConflictArg(args[0])
	if err != nil {
		return "", err
	}

	var (
		conflict types.Conflict
		verb     string
	)
	if step == "register" {
		conflict, err = c.sess.RegisterConflict(id)
		verb = "Registered"
	} else {
		conflict, err = c.sess.ConfirmConflict(id)
		verb = "Confirmed"
	}
	if err != nil {
		return "", err
	}

	out := fmt.Sprintf("%s %s vs %s on %s: state %s.",
		verb, conflict.TrainA, conflict.TrainB,
		conflict.BlockKey, stateColor(conflict.State).Sprint(string(conflict.State)))
	if step == "register" && c.sess.AllRegistered() {
		out += "\n" + c.okColor.Sprint("All conflicts registered; operator may proceed.")
	}
	return out, nil
}

// cmdProceed reports the all-registered gate.
func (c *Console) cmdProceed() (string, error) {
	conflicts := c.sess.Conflicts()
	if len(conflicts) == 0 {
		return "", fmt.Errorf("nothing to adjudicate; run detect first")
	}
	if c.sess.AllRegistered() {
		return c.okColor.Sprintf("All %d conflicts registered; operator may proceed.", len(conflicts)), nil
	}

	pending := 0
	for i := range conflicts {
		if conflicts[i].State == types.StateDetected {
			pending++
		}
	}
	var b strings.Builder
	b.WriteString(c.errorColor.Sprintf("Hold: %d of %d conflicts still unregistered.", pending, len(conflicts)))
	for i, cf := range conflicts {
		if cf.State != types.StateDetected {
			continue
		}
		b.WriteString("\n")
		b.WriteString(formatConflict(i, cf))
	}
	return b.String(), nil
}

// cmdAnalyze runs a what-if scenario from a JSON file and merges the
// outcome into the session.
func (c *Console) cmdAnalyze(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: analyze <scenario.json>")
	}
	if err := c.ensureNetwork(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read scenario: %w", err)
	}
	var scenario types.Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return "", fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Trains) == 0 {
		return "", fmt.Errorf("scenario has no trains")
	}

	result, err := c.analyzer.Analyze(ctx, c.sess.Graph(), &scenario)
	if err != nil {
		return "", err
	}

	// Scenario windows are offsets from now; anchor them so the
	// registry copy lives on the same axis as detection conflicts.
	reference := time.Now().UTC()
	candidates := analysis.CandidatesFromRaw(result.Conflicts, reference)
	conflicts := make([]types.Conflict, 0, len(candidates))
	for _, candidate := range candidates {
		conflicts = append(conflicts, engine.BuildConflict(candidate, reference))
	}
	c.sess.MergeAnalysis(conflicts, result.Recommendations)

	var b strings.Builder
	fmt.Fprintf(&b, "Routed %d of %d trains: %d conflicts, %d recommendations.",
		len(result.Trains), len(scenario.Trains), len(result.Conflicts), len(result.Recommendations))
	for i, rec := range result.Recommendations {
		b.WriteString("\n")
		b.WriteString(formatRecommendation(i, rec))
	}
	if result.Narrative != nil {
		b.WriteString("\n\n")
		b.WriteString(*result.Narrative)
	}
	return b.String(), nil
}

// cmdRecommendations lists the active recommendation set.
func (c *Console) cmdRecommendations() (string, error) {
	recommendations := c.sess.Recommendations()
	if len(recommendations) == 0 {
		return "No active recommendations; run analyze first.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d recommendations:", len(recommendations))
	for i, rec := range recommendations {
		b.WriteString("\n")
		b.WriteString(formatRecommendation(i, rec))
	}
	return b.String(), nil
}

// cmdAccept removes a recommendation named by position or id.
func (c *Console) cmdAccept(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: accept <n|id>")
	}

	recommendations := c.sess.Recommendations()
	if len(recommendations) == 0 {
		return "", fmt.Errorf("no active recommendations; run analyze first")
	}
	id := args[0]
	if n, err := strconv.Atoi(id); err == nil {
		if n < 1 || n > len(recommendations) {
			return "", fmt.Errorf("recommendation %d out of range (1-%d)", n, len(recommendations))
		}
		id = recommendations[n-1].ID
	}

	rec, err := c.sess.AcceptRecommendation(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Accepted: %s (%d remaining).",
		rec.Description, len(c.sess.Recommendations())), nil
}

// cmdStatus summarizes the session.
func (c *Console) cmdStatus() (string, error) {
	info := c.sess.Info()
	gate := c.errorColor.Sprint("hold")
	if info.AllRegistered {
		gate = c.okColor.Sprint("proceed")
	}

	return fmt.Sprintf(`Session status:
  ID:         %s
  Created:    %s
  Stations:   %d
  Sections:   %d
  Trains:     %d
  Stops:      %d
  Conflicts:  %d
  Gate:       %s`,
		info.ID,
		info.CreatedAt.Format("15:04:05"),
		len(c.sess.Stations()),
		len(c.sess.Sections()),
		info.Trains,
		info.Stops,
		info.Conflicts,
		gate,
	), nil
}

// cmdExport writes the session's network and schedule as CSVs into the
// configured data directory.
func (c *Console) cmdExport() (string, error) {
	stations := c.sess.Stations()
	schedule := c.sess.Schedule()
	if len(stations) == 0 && len(schedule) == 0 {
		return "", fmt.Errorf("nothing to export; run load first")
	}

	dir, err := c.cfg.GetDataDir()
	if err != nil {
		return "", err
	}

	var written []string
	if len(stations) > 0 {
		path := filepath.Join(dir, "master_stations.csv")
		if err := network.WriteStations(path, stations); err != nil {
			return "", err
		}
		written = append(written, path)

		path = filepath.Join(dir, "augmented_sections.csv")
		if err := network.WriteSections(path, c.sess.Sections()); err != nil {
			return "", err
		}
		written = append(written, path)
	}
	if len(schedule) > 0 {
		path := filepath.Join(dir, "train_schedule.csv")
		if err := timetable.WriteSchedule(path, schedule); err != nil {
			return "", err
		}
		written = append(written, path)
	}

	return "Wrote:\n  " + strings.Join(written, "\n  "), nil
}

// cmdHistory lists the commands run this session.
func (c *Console) cmdHistory() (string, error) {
	if len(c.history) == 0 {
		return "No commands yet.", nil
	}
	var b strings.Builder
	for i, cmd := range c.history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%3d | %s | %s", i+1, cmd.Timestamp.Format("15:04:05"), cmd.Input)
	}
	return b.String(), nil
}

// resolveConflictArg turns a list position into a conflict id; full
// ids pass through untouched.
func (c *Console) resolveConflictArg(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return arg, nil
	}
	conflicts := c.sess.Conflicts()
	if n < 1 || n > len(conflicts) {
		return "", fmt.Errorf("conflict %d out of range (1-%d)", n, len(conflicts))
	}
	return conflicts[n-1].ID, nil
}

// parsePriority canonicalizes a priority argument; anything unknown
// falls back to the itinerary default.
func parsePriority(value string) types.PriorityLevel {
	switch strings.ToLower(value) {
	case "high":
		return types.PriorityHigh
	case "medium":
		return types.PriorityMedium
	case "low":
		return types.PriorityLow
	default:
		return ""
	}
}

// countTrains counts distinct train ids in a schedule.
func countTrains(schedule []types.TrainStop) int {
	seen := make(map[string]struct{}, len(schedule))
	for i := range schedule {
		seen[schedule[i].TrainID] = struct{}{}
	}
	return len(seen)
}
