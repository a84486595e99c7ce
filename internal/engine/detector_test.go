package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/pkg/types"
)

func stopAt(trainID, from, to, arrive, depart string) types.RawStop {
	return types.RawStop{
		TrainID:    trainID,
		FromCode:   from,
		ToCode:     to,
		ArriveTime: arrive,
		DepartTime: depart,
	}
}

func TestDetector_Detect(t *testing.T) {
	detector := NewDetector()
	ctx := context.Background()

	t.Run("empty schedule", func(t *testing.T) {
		result, err := detector.Detect(ctx, []types.RawStop{})
		require.NoError(t, err)
		assert.Zero(t, result.ConflictsFound)
		assert.Empty(t, result.Conflicts)
		assert.NotEmpty(t, result.ProcessingTime)
	})

	t.Run("single leg cannot conflict", func(t *testing.T) {
		result, err := detector.Detect(ctx, []types.RawStop{
			stopAt("T001", "A", "B", "2025-09-19T08:00:00", "2025-09-19T08:10:00"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalLegs)
		assert.Zero(t, result.ConflictsFound)
	})

	t.Run("overlapping occupancy is classified", func(t *testing.T) {
		result, err := detector.Detect(ctx, []types.RawStop{
			stopAt("T001", "A", "B", "2025-09-19T08:00:00", "2025-09-19T08:10:00"),
			stopAt("T002", "A", "B", "2025-09-19T08:05:00", "2025-09-19T08:15:00"),
		})
		require.NoError(t, err)
		require.Equal(t, 1, result.ConflictsFound)

		c := result.Conflicts[0]
		assert.Equal(t, "A→B", c.BlockKey)
		assert.Equal(t, 5, c.OverlapMinutes)
		assert.Equal(t, types.SeverityHigh, c.Severity)
		assert.Equal(t, ActionHoldForHeadway, c.SuggestedAction)
		assert.Equal(t, types.StateDetected, c.State)
	})

	t.Run("malformed stop contributes nothing", func(t *testing.T) {
		result, err := detector.Detect(ctx, []types.RawStop{
			stopAt("T001", "A", "B", "2025-09-19T08:00:00", "2025-09-19T08:10:00"),
			stopAt("", "A", "B", "2025-09-19T08:01:00", "2025-09-19T08:09:00"),
			stopAt("T002", "A", "B", "2025-09-19T08:05:00", "2025-09-19T08:15:00"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SkippedStops)
		assert.Equal(t, 2, result.TotalLegs)
		assert.Equal(t, 1, result.ConflictsFound)
	})

	t.Run("severity ordering", func(t *testing.T) {
		result, err := detector.Detect(ctx, []types.RawStop{
			// One-minute brush on C→D.
			stopAt("T003", "C", "D", "2025-09-19T08:00:00", "2025-09-19T08:03:00"),
			stopAt("T004", "C", "D", "2025-09-19T08:02:00", "2025-09-19T08:06:00"),
			// Ten-minute standoff on A→B.
			stopAt("T001", "A", "B", "2025-09-19T08:00:00", "2025-09-19T08:10:00"),
			stopAt("T002", "A", "B", "2025-09-19T08:00:00", "2025-09-19T08:10:00"),
		})
		require.NoError(t, err)
		require.Equal(t, 2, result.ConflictsFound)
		assert.Equal(t, types.SeverityHigh, result.Conflicts[0].Severity)
		assert.Equal(t, "A→B", result.Conflicts[0].BlockKey)
		assert.Equal(t, types.SeverityLow, result.Conflicts[1].Severity)
	})
}

func TestDetector_Detect_Idempotent(t *testing.T) {
	detector := NewDetector()
	ctx := context.Background()

	stops := []types.RawStop{
		stopAt("T001", "A", "B", "2025-09-19T08:00:00", "2025-09-19T08:10:00"),
		stopAt("T002", "A", "B", "2025-09-19T08:05:00", "2025-09-19T08:15:00"),
		stopAt("T003", "B", "C", "2025-09-19T08:12:00", "2025-09-19T08:20:00"),
		stopAt("T001", "B", "C", "2025-09-19T08:14:00", "2025-09-19T08:22:00"),
	}

	first, err := detector.Detect(ctx, stops)
	require.NoError(t, err)
	second, err := detector.Detect(ctx, stops)
	require.NoError(t, err)

	require.Equal(t, first.ConflictsFound, second.ConflictsFound)
	for i := range first.Conflicts {
		assert.Equal(t, first.Conflicts[i].ID, second.Conflicts[i].ID)
		assert.Equal(t, first.Conflicts[i].BlockKey, second.Conflicts[i].BlockKey)
		assert.Equal(t, first.Conflicts[i].TrainA, second.Conflicts[i].TrainA)
		assert.Equal(t, first.Conflicts[i].TrainB, second.Conflicts[i].TrainB)
		assert.Equal(t, first.Conflicts[i].OverlapMinutes, second.Conflicts[i].OverlapMinutes)
		assert.Equal(t, first.Conflicts[i].Severity, second.Conflicts[i].Severity)
	}
}
