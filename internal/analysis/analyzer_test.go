package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/internal/network"
	"railwatch/pkg/types"
)

func scenarioGraph() *network.NameGraph {
	return network.BuildNameGraph([]types.Section{
		{FromCode: "A", FromName: "Alpha", ToCode: "B", ToName: "Bravo", TravelMin: 10},
		{FromCode: "B", FromName: "Bravo", ToCode: "C", ToName: "Charlie", TravelMin: 10},
	})
}

func contestedScenario() *types.Scenario {
	return &types.Scenario{
		Trains: []types.ScenarioTrain{
			{TrainID: "T1", TrainType: types.TrainTypeExpress, PriorityLevel: types.PriorityHigh, Source: "Alpha", Destination: "Charlie"},
			{TrainID: "T2", TrainType: types.TrainTypePassenger, PriorityLevel: types.PriorityLow, Source: "Alpha", Destination: "Bravo"},
		},
		Constraints: types.ScenarioConstraints{MinHeadwayMin: 2},
	}
}

func TestAnalyze(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	result, err := analyzer.Analyze(context.Background(), scenarioGraph(), contestedScenario())
	require.NoError(t, err)

	// Both trains route; they contest the first block for its full
	// ten-minute window.
	require.Len(t, result.Trains, 2)
	require.Len(t, result.Conflicts, 1)

	c := result.Conflicts[0]
	assert.Equal(t, "Alpha→Bravo", c.Block)
	assert.Equal(t, "T1", c.TrainA)
	assert.Equal(t, "T2", c.TrainB)
	assert.Equal(t, 0.0, c.Start)
	assert.Equal(t, 10.0, c.End)

	// Higher priority proceeds.
	assert.Equal(t, types.ActionProceed, result.Decisions["T1"])
	assert.Equal(t, types.ActionHold, result.Decisions["T2"])

	require.Len(t, result.Recommendations, 1)
	rec := result.Recommendations[0]
	assert.Equal(t, "Alpha→Bravo:T1:T2:0.0", rec.ID)
	assert.Equal(t, "Resolve block contention on Alpha→Bravo: let T1 proceed, hold the other", rec.Description)
	assert.Equal(t, "-10 min potential delay", rec.Impact)
	assert.Equal(t, confidenceWithWinner, rec.Confidence)
	assert.Equal(t, types.RecommendationHold, rec.Type)

	// No collaborator configured, no narrative.
	assert.Nil(t, result.Narrative)

	report := result.Report
	require.Len(t, report.ConflictsAndDecisions, 1)
	assert.Equal(t, 10.0, report.ConflictsAndDecisions[0].WindowMin)
	assert.Equal(t, types.ActionProceed, report.ConflictsAndDecisions[0].Decision["T1"])
	assert.Equal(t, []string{"t+0.0: conflict on Alpha→Bravo between T1 and T2"}, report.EventLog)
	assert.Equal(t, reportReasoning, report.Reasoning)
	assert.Equal(t, kpiSafety, report.KPIImpact.Safety)
	assert.Nil(t, report.ModelSummary)
}

func TestAnalyze_Deterministic(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	first, err := analyzer.Analyze(context.Background(), scenarioGraph(), contestedScenario())
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), scenarioGraph(), contestedScenario())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyze_SkipsUnroutableTrains(t *testing.T) {
	scenario := &types.Scenario{
		Trains: []types.ScenarioTrain{
			{TrainID: "T1", PriorityLevel: types.PriorityMedium, Source: "Nowhere", Destination: "Charlie"},
			{TrainID: "T2", PriorityLevel: types.PriorityMedium, Source: "Alpha", Destination: "Bravo"},
		},
	}

	result, err := NewAnalyzer(nil).Analyze(context.Background(), scenarioGraph(), scenario)
	require.NoError(t, err)
	require.Len(t, result.Trains, 1)
	assert.Equal(t, "T2", result.Trains[0].ID)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.Recommendations)
}

func TestAnalyze_EqualPriorityTieBreaksOnID(t *testing.T) {
	scenario := &types.Scenario{
		Trains: []types.ScenarioTrain{
			{TrainID: "T9", PriorityLevel: types.PriorityMedium, Source: "Alpha", Destination: "Bravo"},
			{TrainID: "T2", PriorityLevel: types.PriorityMedium, Source: "Alpha", Destination: "Bravo"},
		},
	}

	result, err := NewAnalyzer(nil).Analyze(context.Background(), scenarioGraph(), scenario)
	require.NoError(t, err)
	assert.Equal(t, types.ActionProceed, result.Decisions["T2"])
	assert.Equal(t, types.ActionHold, result.Decisions["T9"])
}

func TestAnalyze_NarrativeAndMining(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(narrativeResponse("All clear. Suggested posture:\n\n- Hold T5 two minutes at Alpha\n- Give freight paths off-peak slots\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	analyzer := NewAnalyzer(client)

	// One train, no conflicts: recommendations come from the mined
	// narrative list.
	scenario := &types.Scenario{
		Trains: []types.ScenarioTrain{
			{TrainID: "T5", PriorityLevel: types.PriorityMedium, Source: "Alpha", Destination: "Charlie"},
		},
	}
	result, err := analyzer.Analyze(context.Background(), scenarioGraph(), scenario)
	require.NoError(t, err)

	require.NotNil(t, result.Narrative)
	assert.Equal(t, result.Narrative, result.Report.ModelSummary)

	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, types.RecommendationHold, result.Recommendations[0].Type)
	assert.Equal(t, types.DefaultConfidence, result.Recommendations[0].Confidence)
	assert.Equal(t, types.RecommendationPriority, result.Recommendations[1].Type)
}

func TestAnalyze_CollaboratorFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	analyzer := NewAnalyzer(newTestClient(t, server.URL))
	result, err := analyzer.Analyze(context.Background(), scenarioGraph(), contestedScenario())
	require.NoError(t, err)

	assert.Nil(t, result.Narrative)
	assert.Len(t, result.Conflicts, 1)
	assert.Len(t, result.Recommendations, 1)
}
