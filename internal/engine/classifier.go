package engine

import (
	"time"

	"railwatch/pkg/types"
)

// Suggested mitigation texts. These strings reach the operator.
const (
	ActionHoldForHeadway = "Hold lower-priority train for headway"
	ActionReduceSpeed    = "Reduce speed for minor deconfliction"
)

// Severity thresholds in overlap minutes.
const (
	highOverlapMin   = 5
	mediumOverlapMin = 2
)

// Classify maps an overlap duration to a severity tier and a suggested
// mitigation. Every conflict entering the registry passes through
// here, including conflicts reported by the analysis collaborator, so
// severity semantics stay consistent regardless of origin.
func Classify(overlapMinutes int) (types.ConflictSeverity, string) {
	switch {
	case overlapMinutes >= highOverlapMin:
		return types.SeverityHigh, ActionHoldForHeadway
	case overlapMinutes >= mediumOverlapMin:
		return types.SeverityMedium, ActionReduceSpeed
	default:
		return types.SeverityLow, ActionReduceSpeed
	}
}

// BuildConflict classifies a candidate and wraps it into a registry
// record in the Detected state under its deterministic id.
func BuildConflict(candidate types.ConflictCandidate, detectedAt time.Time) types.Conflict {
	severity, action := Classify(candidate.OverlapMinutes)
	return types.Conflict{
		ID:              types.ConflictID(candidate.BlockKey, candidate.TrainA, candidate.TrainB, candidate.OverlapStart),
		BlockKey:        candidate.BlockKey,
		TrainA:          candidate.TrainA,
		TrainB:          candidate.TrainB,
		OverlapStart:    candidate.OverlapStart,
		OverlapEnd:      candidate.OverlapEnd,
		OverlapMinutes:  candidate.OverlapMinutes,
		Severity:        severity,
		SuggestedAction: action,
		State:           types.StateDetected,
		DetectedAt:      detectedAt,
	}
}
