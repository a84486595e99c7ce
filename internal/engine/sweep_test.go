package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/pkg/types"
)

var sweepBase = time.Date(2025, 9, 19, 8, 0, 0, 0, time.UTC).UnixMilli()

// legAt builds a leg whose window is expressed in minutes from the
// shared base time.
func legAt(trainID, blockKey string, startMin, endMin int) types.Leg {
	return types.Leg{
		TrainID:  trainID,
		BlockKey: blockKey,
		Start:    sweepBase + int64(startMin)*60000,
		End:      sweepBase + int64(endMin)*60000,
	}
}

func TestSweepLegs_OverlapOnSharedBlock(t *testing.T) {
	legs := []types.Leg{
		legAt("T001", "A→B", 0, 10),
		legAt("T002", "A→B", 5, 15),
	}

	candidates := SweepLegs(legs)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "A→B", c.BlockKey)
	assert.Equal(t, "T001", c.TrainA)
	assert.Equal(t, "T002", c.TrainB)
	assert.Equal(t, 5, c.OverlapMinutes)
	assert.Equal(t, sweepBase+5*60000, c.OverlapStart)
	assert.Equal(t, sweepBase+10*60000, c.OverlapEnd)
}

func TestSweepLegs_TouchingWindowsAreNotConflicts(t *testing.T) {
	legs := []types.Leg{
		legAt("T001", "A→B", 0, 10),
		legAt("T002", "A→B", 10, 20),
	}

	assert.Empty(t, SweepLegs(legs))
}

func TestSweepLegs_NestedWindow(t *testing.T) {
	legs := []types.Leg{
		legAt("T001", "A→B", 0, 3),
		legAt("T002", "A→B", 1, 2),
	}

	candidates := SweepLegs(legs)
	require.Len(t, candidates, 1)
	assert.Equal(t, 1, candidates[0].OverlapMinutes)
}

func TestSweepLegs_NoCrossBlockOrSameTrainConflicts(t *testing.T) {
	legs := []types.Leg{
		legAt("T001", "A→B", 0, 10),
		legAt("T002", "B→A", 0, 10), // opposite direction, distinct block
		legAt("T001", "A→B", 5, 12), // same train, same block
	}

	assert.Empty(t, SweepLegs(legs))
}

func TestSweepLegs_PairReportedOnce(t *testing.T) {
	legs := []types.Leg{
		legAt("T001", "A→B", 0, 10),
		legAt("T002", "A→B", 0, 10),
	}

	candidates := SweepLegs(legs)
	require.Len(t, candidates, 1)
	assert.NotEqual(t, candidates[0].TrainA, candidates[0].TrainB)
}

func TestSweepLegs_InvariantsHoldForDenseCluster(t *testing.T) {
	// Five trains piling onto two blocks inside one hour.
	legs := []types.Leg{
		legAt("T001", "A→B", 0, 20),
		legAt("T002", "A→B", 5, 25),
		legAt("T003", "A→B", 10, 30),
		legAt("T004", "C→D", 0, 15),
		legAt("T005", "C→D", 14, 40),
	}

	candidates := SweepLegs(legs)
	require.Len(t, candidates, 4)

	for _, c := range candidates {
		assert.NotEqual(t, c.TrainA, c.TrainB)
		assert.Positive(t, c.OverlapMinutes)
		assert.LessOrEqual(t, c.OverlapStart, c.OverlapEnd)
	}
}

func TestSweepLegs_DeterministicOrder(t *testing.T) {
	legs := []types.Leg{
		legAt("T003", "A→B", 0, 10),
		legAt("T001", "A→B", 0, 10),
		legAt("T002", "A→B", 0, 10),
	}

	first := SweepLegs(legs)

	// Shuffle the input; the sort inside the sweep restores order.
	shuffled := []types.Leg{legs[1], legs[2], legs[0]}
	second := SweepLegs(shuffled)

	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, "T001", first[0].TrainA)
	assert.Equal(t, "T002", first[0].TrainB)
}

func TestSweepLegs_SubMinuteOverlapRoundsAway(t *testing.T) {
	// 20 seconds of shared occupancy rounds to zero minutes.
	legs := []types.Leg{
		{TrainID: "T001", BlockKey: "A→B", Start: sweepBase, End: sweepBase + 80000},
		{TrainID: "T002", BlockKey: "A→B", Start: sweepBase + 60000, End: sweepBase + 200000},
	}

	assert.Empty(t, SweepLegs(legs))
}
