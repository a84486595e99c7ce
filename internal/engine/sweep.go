package engine

import (
	"math"
	"sort"

	"railwatch/pkg/types"
)

// msPerMinute converts overlap windows to whole minutes.
const msPerMinute = 60000.0

// SweepLegs finds every pair of legs occupying the same directed block
// with strictly overlapping windows. Legs are start-sorted (ties by
// block key then train id, keeping output stable for a fixed input);
// each leg is compared forward only while a later leg can still start
// inside its window, since once leg[j] starts after leg[i] ends no
// later leg can overlap leg[i] either.
func SweepLegs(legs []types.Leg) []types.ConflictCandidate {
	candidates := []types.ConflictCandidate{}
	if len(legs) < 2 {
		return candidates
	}

	sorted := make([]types.Leg, len(legs))
	copy(sorted, legs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		if sorted[i].BlockKey != sorted[j].BlockKey {
			return sorted[i].BlockKey < sorted[j].BlockKey
		}
		return sorted[i].TrainID < sorted[j].TrainID
	})

	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Start > sorted[i].End {
				break
			}
			if sorted[j].BlockKey != sorted[i].BlockKey || sorted[j].TrainID == sorted[i].TrainID {
				continue
			}
			overlapStart := max(sorted[i].Start, sorted[j].Start)
			overlapEnd := min(sorted[i].End, sorted[j].End)
			overlapMinutes := int(math.Round(float64(overlapEnd-overlapStart) / msPerMinute))
			// Touching or sub-half-minute windows are not conflicts.
			if overlapMinutes <= 0 {
				continue
			}
			candidates = append(candidates, types.ConflictCandidate{
				BlockKey:       sorted[i].BlockKey,
				TrainA:         sorted[i].TrainID,
				TrainB:         sorted[j].TrainID,
				OverlapStart:   overlapStart,
				OverlapEnd:     overlapEnd,
				OverlapMinutes: overlapMinutes,
			})
		}
	}
	return candidates
}
