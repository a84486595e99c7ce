package analysis

import (
	"fmt"
	"math"

	"railwatch/pkg/types"
)

// Controller-facing boilerplate of the structured report. The
// conflict-specific parts are computed; these qualitative summaries
// are fixed.
const (
	reportReasoning = "Decisions prioritize higher priority and delayed trains; headway maintained by holding the lower-scoring train on shared blocks."
	reportRerouting = "Consider alternate paths to bypass congested blocks and stagger lower-priority departures by 2–5 minutes to restore headway."
	reportFairness  = "Fair if priorities reflect service policy; rotate holds among equal-priority trains to avoid starvation."
	reportStrategy  = "Apply precedence + optional reroute for held trains; if conflict chain detected, schedule minor offsets to break cascades."

	kpiThroughput   = "neutral to slightly positive"
	kpiAverageDelay = "reduced for priority trains, small increase for held trains"
	kpiSafety       = "maintained via headway and single-block occupancy"
)

// buildReport assembles the presentation blob: per-conflict decisions,
// an event log in minute offsets, the qualitative summaries, and the
// narrative when the collaborator produced one.
func buildReport(conflicts []types.RawConflict, decisions map[string]types.PrecedenceAction, narrative *string) types.AnalysisReport {
	summary := make([]types.BlockDecision, 0, len(conflicts))
	eventLog := make([]string, 0, len(conflicts))
	for i := range conflicts {
		c := &conflicts[i]
		summary = append(summary, types.BlockDecision{
			Block:     c.Block,
			Trains:    []string{c.TrainA, c.TrainB},
			WindowMin: math.Round((c.End-c.Start)*10) / 10,
			Decision: map[string]types.PrecedenceAction{
				c.TrainA: decisionOrHold(decisions, c.TrainA),
				c.TrainB: decisionOrHold(decisions, c.TrainB),
			},
		})
		eventLog = append(eventLog, fmt.Sprintf("t+%.1f: conflict on %s between %s and %s", c.Start, c.Block, c.TrainA, c.TrainB))
	}

	return types.AnalysisReport{
		ConflictsAndDecisions: summary,
		Reasoning:             reportReasoning,
		ReroutingOrStaggering: reportRerouting,
		KPIImpact: types.KPIImpact{
			Throughput:   kpiThroughput,
			AverageDelay: kpiAverageDelay,
			Safety:       kpiSafety,
		},
		EventLog:             eventLog,
		Fairness:             reportFairness,
		OptimizationStrategy: reportStrategy,
		ModelSummary:         narrative,
	}
}

func decisionOrHold(decisions map[string]types.PrecedenceAction, trainID string) types.PrecedenceAction {
	if action, ok := decisions[trainID]; ok {
		return action
	}
	return types.ActionHold
}
