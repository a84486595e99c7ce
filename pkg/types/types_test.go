package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictSeverity_Valid(t *testing.T) {
	tests := []struct {
		name     string
		severity ConflictSeverity
		expected bool
	}{
		{"valid high", SeverityHigh, true},
		{"valid medium", SeverityMedium, true},
		{"valid low", SeverityLow, true},
		{"invalid empty", ConflictSeverity(""), false},
		{"invalid random", ConflictSeverity("critical"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.severity.Valid())
		})
	}
}

func TestConflictSeverity_Weight(t *testing.T) {
	assert.Greater(t, SeverityHigh.Weight(), SeverityMedium.Weight())
	assert.Greater(t, SeverityMedium.Weight(), SeverityLow.Weight())
	assert.Greater(t, SeverityLow.Weight(), ConflictSeverity("bogus").Weight())
}

func TestLifecycleState_Valid(t *testing.T) {
	tests := []struct {
		name     string
		state    LifecycleState
		expected bool
	}{
		{"valid detected", StateDetected, true},
		{"valid registered", StateRegistered, true},
		{"valid confirmed", StateConfirmed, true},
		{"invalid empty", LifecycleState(""), false},
		{"invalid random", LifecycleState("resolved"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.Valid())
		})
	}
}

func TestLifecycleState_Acknowledged(t *testing.T) {
	assert.False(t, StateDetected.Acknowledged())
	assert.True(t, StateRegistered.Acknowledged())
	assert.True(t, StateConfirmed.Acknowledged())
}

func TestMakeBlockKey_DirectionMatters(t *testing.T) {
	assert.Equal(t, "NDLS→GZB", MakeBlockKey("NDLS", "GZB"))
	assert.NotEqual(t, MakeBlockKey("NDLS", "GZB"), MakeBlockKey("GZB", "NDLS"))
}

func TestConflictID_Deterministic(t *testing.T) {
	a := ConflictID("NDLS→GZB", "T001", "T002", 1758268800000)
	b := ConflictID("NDLS→GZB", "T001", "T002", 1758268800000)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, ConflictID("NDLS→GZB", "T001", "T002", 1758268860000))
	assert.NotEqual(t, a, ConflictID("NDLS→GZB", "T002", "T001", 1758268800000))
	assert.NotEqual(t, a, ConflictID("GZB→NDLS", "T001", "T002", 1758268800000))
}

func TestConflict_Validate(t *testing.T) {
	valid := func() Conflict {
		return Conflict{
			ID:              ConflictID("NDLS→GZB", "T001", "T002", 1000),
			BlockKey:        "NDLS→GZB",
			TrainA:          "T001",
			TrainB:          "T002",
			OverlapStart:    1000,
			OverlapEnd:      121000,
			OverlapMinutes:  2,
			Severity:        SeverityMedium,
			SuggestedAction: "Reduce speed for minor deconfliction",
			State:           StateDetected,
			DetectedAt:      time.Now().UTC(),
		}
	}

	c := valid()
	require.NoError(t, c.Validate())

	tests := []struct {
		name    string
		mutate  func(*Conflict)
		wantErr string
	}{
		{"empty id", func(c *Conflict) { c.ID = "" }, "id cannot be empty"},
		{"same trains", func(c *Conflict) { c.TrainB = c.TrainA }, "trains must differ"},
		{"zero overlap", func(c *Conflict) { c.OverlapMinutes = 0 }, "overlap must be positive"},
		{"negative overlap", func(c *Conflict) { c.OverlapMinutes = -3 }, "overlap must be positive"},
		{"bad severity", func(c *Conflict) { c.Severity = "urgent" }, "invalid severity"},
		{"bad state", func(c *Conflict) { c.State = "done" }, "invalid lifecycle state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTrainType_Valid(t *testing.T) {
	for _, tt := range TrainTypes() {
		assert.True(t, tt.Valid(), "train type %s should be valid", tt)
	}
	assert.False(t, TrainType("").Valid())
	assert.False(t, TrainType("Metro").Valid())
}

func TestPriorityLevel_Weight(t *testing.T) {
	tests := []struct {
		name     string
		level    PriorityLevel
		expected int
	}{
		{"high outranks all", PriorityHigh, 5},
		{"medium default", PriorityMedium, 3},
		{"low yields", PriorityLow, 1},
		{"unknown weighs like low", PriorityLevel("Urgent"), 1},
		{"empty weighs like low", PriorityLevel(""), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.Weight())
		})
	}
}

func TestPriorityLevel_Valid(t *testing.T) {
	for _, pl := range PriorityLevels() {
		assert.True(t, pl.Valid(), "priority level %s should be valid", pl)
	}
	assert.False(t, PriorityLevel("Urgent").Valid())
}

func TestLegType_Valid(t *testing.T) {
	tests := []struct {
		name     string
		lt       LegType
		expected bool
	}{
		{"valid real", LegTypeReal, true},
		{"valid inferred", LegTypeInferred, true},
		{"valid origin", LegTypeOrigin, true},
		{"invalid empty", LegType(""), false},
		{"invalid random", LegType("virtual"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lt.Valid())
		})
	}
}

func TestStation_HasCoordinates(t *testing.T) {
	lat := 28.6139
	lon := 77.2090

	assert.True(t, (&Station{Code: "NDLS", Latitude: &lat, Longitude: &lon}).HasCoordinates())
	assert.False(t, (&Station{Code: "NDLS", Latitude: &lat}).HasCoordinates())
	assert.False(t, (&Station{Code: "NDLS", Longitude: &lon}).HasCoordinates())
	assert.False(t, (&Station{Code: "NDLS"}).HasCoordinates())
}

func TestTrainStop_RawStop(t *testing.T) {
	stop := TrainStop{
		TrainID:    "T001",
		FromCode:   "NDLS",
		ToCode:     "GZB",
		ArriveTime: "2025-09-19T08:25:00",
		DepartTime: "2025-09-19T08:27:00",
		LegType:    LegTypeReal,
	}

	raw := stop.RawStop()
	assert.Equal(t, "T001", raw.TrainID)
	assert.Equal(t, "NDLS", raw.FromCode)
	assert.Equal(t, "GZB", raw.ToCode)
	assert.Equal(t, "2025-09-19T08:25:00", raw.ArriveTime)
	assert.Equal(t, "2025-09-19T08:27:00", raw.DepartTime)
}

func TestTrainStop_RawStop_OriginRow(t *testing.T) {
	origin := TrainStop{
		TrainID:    "T001",
		ToCode:     "NDLS",
		ArriveTime: "2025-09-19T08:00:00",
		DepartTime: "2025-09-19T08:00:00",
		LegType:    LegTypeOrigin,
	}

	raw := origin.RawStop()
	assert.Empty(t, raw.FromCode, "origin rows occupy no block")
}

func TestInferRecommendationType(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    RecommendationType
	}{
		{"hold keyword", "Hold T002 at the junction for 3 minutes", RecommendationHold},
		{"hold mid-sentence", "let T001 proceed, hold the other", RecommendationHold},
		{"uppercase hold", "HOLD until the block clears", RecommendationHold},
		{"precedence wording", "Give T001 priority through the section", RecommendationPriority},
		{"empty", "", RecommendationPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferRecommendationType(tt.description))
		})
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"below range", -10, 0},
		{"zero", 0, 0},
		{"in range", 80, 80},
		{"upper bound", 100, 100},
		{"above range", 140, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampConfidence(tt.input))
		})
	}
}
