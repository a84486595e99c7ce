package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"railwatch/internal/engine"
	"railwatch/internal/network"
	"railwatch/pkg/types"
)

// Analyzer runs the scenario pipeline. The narrative client is
// optional; a nil client just means no model summary.
type Analyzer struct {
	narrative *NarrativeClient
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(narrative *NarrativeClient) *Analyzer {
	return &Analyzer{narrative: narrative}
}

// Result is one full analysis pass over a scenario. Conflict windows
// are minute offsets from the scenario reference time; conversion to
// epoch-ms happens at the registry boundary via CandidatesFromRaw.
type Result struct {
	Trains          []BuiltTrain
	Conflicts       []types.RawConflict
	Decisions       map[string]types.PrecedenceAction
	Recommendations []types.Recommendation
	Narrative       *string
	Report          types.AnalysisReport
}

// Analyze routes the scenario's trains, sweeps their block occupancies
// for overlaps, decides precedence, and derives recommendations and
// the structured report. The collaborator call is best-effort: when it
// fails the narrative is nil and everything else still comes back.
func (a *Analyzer) Analyze(ctx context.Context, graph *network.NameGraph, scenario *types.Scenario) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	built := buildTrains(scenario, graph)

	legs := make([]types.Leg, 0, len(built)*4)
	priority := make(map[string]int, len(built))
	for i := range built {
		legs = append(legs, built[i].Legs...)
		priority[built[i].ID] = built[i].Priority
	}

	candidates := engine.SweepLegs(legs)
	conflicts := make([]types.RawConflict, 0, len(candidates))
	pairs := make(map[trainPair]bool, len(candidates))
	for _, cand := range candidates {
		conflicts = append(conflicts, types.RawConflict{
			Block:  cand.BlockKey,
			TrainA: cand.TrainA,
			TrainB: cand.TrainB,
			Start:  float64(cand.OverlapStart) / msPerMinute,
			End:    float64(cand.OverlapEnd) / msPerMinute,
		})
		pairs[makePair(cand.TrainA, cand.TrainB)] = true
	}

	decisions := decidePrecedence(pairs, priority)
	recommendations := heuristicRecommendations(conflicts, decisions)

	narrative := a.summarize(ctx, conflicts, decisions)
	if len(recommendations) == 0 && narrative != nil {
		recommendations = DecodeRecommendations(MineNarrative(*narrative))
	}

	return &Result{
		Trains:          built,
		Conflicts:       conflicts,
		Decisions:       decisions,
		Recommendations: recommendations,
		Narrative:       narrative,
		Report:          buildReport(conflicts, decisions, narrative),
	}, nil
}

// summarize asks the collaborator for a controller-facing narrative.
// Failures leave it nil; the pipeline never depends on the model.
func (a *Analyzer) summarize(ctx context.Context, conflicts []types.RawConflict, decisions map[string]types.PrecedenceAction) *string {
	if a.narrative == nil {
		return nil
	}
	summary, err := a.narrative.Summarize(ctx, buildPrompt(conflicts, decisions))
	if err != nil || summary == "" {
		return nil
	}
	return &summary
}

// buildPrompt renders conflicts and decisions as plain text for the
// model, decisions in sorted order so the prompt is reproducible.
func buildPrompt(conflicts []types.RawConflict, decisions map[string]types.PrecedenceAction) string {
	var b strings.Builder
	b.WriteString("Conflicts:\n")
	for i := range conflicts {
		c := &conflicts[i]
		fmt.Fprintf(&b, "- %s: %s vs %s, window t+%.1f to t+%.1f min\n", c.Block, c.TrainA, c.TrainB, c.Start, c.End)
	}

	trains := make([]string, 0, len(decisions))
	for id := range decisions {
		trains = append(trains, id)
	}
	sort.Strings(trains)

	b.WriteString("Decisions:\n")
	for _, id := range trains {
		fmt.Fprintf(&b, "- %s: %s\n", id, decisions[id])
	}
	b.WriteString("Provide brief controller recommendations.")
	return b.String()
}
