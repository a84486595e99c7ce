package engine

import (
	"context"
	"sort"
	"time"

	"railwatch/pkg/types"
)

// Detector runs the full detection pipeline over a schedule snapshot.
type Detector struct{}

// NewDetector creates a detection engine.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectionResult contains one detection pass over a schedule.
type DetectionResult struct {
	TotalStops     int              `json:"total_stops"`
	SkippedStops   int              `json:"skipped_stops"`
	TotalLegs      int              `json:"total_legs"`
	ConflictsFound int              `json:"conflicts_found"`
	Conflicts      []types.Conflict `json:"conflicts"`
	AnalysisTime   time.Time        `json:"analysis_time"`
	ProcessingTime string           `json:"processing_time"`
}

// Detect normalizes the stops, sweeps for overlapping occupancies, and
// classifies what it finds. Conflicts come back ordered by severity,
// then overlap length, then id; ids are deterministic so re-running on
// an unchanged schedule reproduces the result exactly.
func (d *Detector) Detect(ctx context.Context, stops []types.RawStop) (*DetectionResult, error) {
	startTime := time.Now().UTC()

	legs, skipped := NormalizeStops(stops)
	result := &DetectionResult{
		TotalStops:   len(stops),
		SkippedStops: skipped,
		TotalLegs:    len(legs),
		Conflicts:    []types.Conflict{},
		AnalysisTime: startTime,
	}

	if len(legs) < 2 {
		result.ProcessingTime = time.Since(startTime).String()
		return result, nil
	}

	candidates := SweepLegs(legs)
	conflicts := make([]types.Conflict, 0, len(candidates))
	for _, candidate := range candidates {
		conflicts = append(conflicts, BuildConflict(candidate, startTime))
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Severity != conflicts[j].Severity {
			return conflicts[i].Severity.Weight() > conflicts[j].Severity.Weight()
		}
		if conflicts[i].OverlapMinutes != conflicts[j].OverlapMinutes {
			return conflicts[i].OverlapMinutes > conflicts[j].OverlapMinutes
		}
		return conflicts[i].ID < conflicts[j].ID
	})

	result.Conflicts = conflicts
	result.ConflictsFound = len(conflicts)
	result.ProcessingTime = time.Since(startTime).String()

	return result, nil
}
