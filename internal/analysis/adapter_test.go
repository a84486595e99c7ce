package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/pkg/types"
)

func TestDecodeRecommendations(t *testing.T) {
	payloads := []map[string]interface{}{
		{
			"id":          "rec-custom",
			"description": "Hold T002 at the junction",
			"impact":      "-4 min potential delay",
			"confidence":  80,
		},
		{
			"description": "Give T001 precedence through the block",
		},
		{
			"description": "Divert via the loop line",
			"type":        "route",
			"confidence":  250,
		},
	}

	recs := DecodeRecommendations(payloads)
	require.Len(t, recs, 3)

	assert.Equal(t, "rec-custom", recs[0].ID)
	assert.Equal(t, types.RecommendationHold, recs[0].Type)
	assert.Equal(t, 80, recs[0].Confidence)
	assert.Equal(t, "-4 min potential delay", recs[0].Impact)

	// Missing fields pick up defaults.
	assert.Equal(t, "rec-002", recs[1].ID)
	assert.Equal(t, types.RecommendationPriority, recs[1].Type)
	assert.Equal(t, types.DefaultConfidence, recs[1].Confidence)
	assert.Empty(t, recs[1].Impact)

	// A payload-supplied type wins over inference; confidence clamps.
	assert.Equal(t, types.RecommendationRoute, recs[2].Type)
	assert.Equal(t, 100, recs[2].Confidence)
}

func TestDecodeRecommendations_SkipsMalformed(t *testing.T) {
	payloads := []map[string]interface{}{
		{"impact": "no description here"},
		{"description": "Hold T003", "confidence": "not a number"},
		{"description": "Survivor"},
	}

	recs := DecodeRecommendations(payloads)
	require.Len(t, recs, 1)
	assert.Equal(t, "Survivor", recs[0].Description)
	assert.Equal(t, "rec-001", recs[0].ID)
}

func TestDecodeRecommendations_FloatConfidence(t *testing.T) {
	// JSON round trips numbers as float64; decoding must accept them.
	recs := DecodeRecommendations([]map[string]interface{}{
		{"description": "Hold T004", "confidence": float64(66)},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, 66, recs[0].Confidence)
}

func TestCandidatesFromRaw(t *testing.T) {
	ref := time.Date(2025, 9, 19, 8, 0, 0, 0, time.UTC)
	raw := []types.RawConflict{
		{Block: "Alpha→Bravo", TrainA: "T1", TrainB: "T2", Start: 10, End: 17.5},
		{Block: "Bravo→Charlie", TrainA: "T1", TrainB: "T3", Start: 3, End: 3.2}, // rounds to zero
	}

	candidates := CandidatesFromRaw(raw, ref)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Alpha→Bravo", c.BlockKey)
	assert.Equal(t, ref.UnixMilli()+10*60000, c.OverlapStart)
	assert.Equal(t, ref.UnixMilli()+17*60000+30000, c.OverlapEnd)
	assert.Equal(t, 8, c.OverlapMinutes)
}

func TestMineNarrative(t *testing.T) {
	narrative := `The controller should take the following actions:

- Hold T002 at Ghaziabad until the block clears
- Let T001 proceed with priority
  - stagger the following departure

No further action needed.`

	items := MineNarrative(narrative)
	require.Len(t, items, 2)
	assert.Contains(t, items[0]["description"], "Hold T002 at Ghaziabad")
	assert.Contains(t, items[1]["description"], "Let T001 proceed")

	recs := DecodeRecommendations(items)
	require.Len(t, recs, 2)
	assert.Equal(t, types.RecommendationHold, recs[0].Type)
	assert.Equal(t, types.DefaultConfidence, recs[0].Confidence)
}

func TestMineNarrative_NoLists(t *testing.T) {
	assert.Empty(t, MineNarrative("Just a paragraph with no actionable list."))
}
