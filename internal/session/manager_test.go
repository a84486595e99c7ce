package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/internal/registry"
	"railwatch/pkg/types"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) ConflictsReplaced(string, []types.Conflict) {
	n.record("conflicts_replaced")
}

func (n *recordingNotifier) ConflictRegistered(string, types.Conflict) {
	n.record("conflict_registered")
}

func (n *recordingNotifier) ConflictConfirmed(string, types.Conflict) {
	n.record("conflict_confirmed")
}

func (n *recordingNotifier) RecommendationsReplaced(string, []types.Recommendation) {
	n.record("recommendations_replaced")
}

func (n *recordingNotifier) RecommendationAccepted(string, types.Recommendation) {
	n.record("recommendation_accepted")
}

// conflictingSchedule puts two trains on the A→B block with a five
// minute overlap, plus one origin row that normalization must skip.
func conflictingSchedule() []types.TrainStop {
	return []types.TrainStop{
		{
			TrainID: "T1", StopIndex: 0, StationCode: "A",
			ArriveTime: "2025-09-19T08:00:00", DepartTime: "2025-09-19T08:00:00",
			LegType: types.LegTypeOrigin,
		},
		{
			TrainID: "T1", StopIndex: 1, StationCode: "B",
			FromCode: "A", ToCode: "B",
			ArriveTime: "2025-09-19T08:10:00", DepartTime: "2025-09-19T08:20:00",
			LegType: types.LegTypeReal,
		},
		{
			TrainID: "T2", StopIndex: 1, StationCode: "B",
			FromCode: "A", ToCode: "B",
			ArriveTime: "2025-09-19T08:15:00", DepartTime: "2025-09-19T08:25:00",
			LegType: types.LegTypeReal,
		},
	}
}

func TestManager_DefaultSession(t *testing.T) {
	m := NewManager(nil)

	def := m.Default()
	require.NotNil(t, def)
	assert.NotEmpty(t, def.ID)

	resolved, err := m.Resolve("")
	require.NoError(t, err)
	assert.Same(t, def, resolved)

	_, err = m.Resolve("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_CreateAndList(t *testing.T) {
	m := NewManager(nil)

	created := m.Create()
	got, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, got)

	infos := m.List()
	require.Len(t, infos, 2)
	// Newest first
	assert.Equal(t, created.ID, infos[0].ID)
}

func TestSession_DetectConflicts(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewManager(notifier)
	s := m.Default()

	s.SetSchedule(conflictingSchedule())

	result, err := s.DetectConflicts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalStops)
	assert.Equal(t, 1, result.SkippedStops)
	assert.Equal(t, 2, result.TotalLegs)
	require.Len(t, result.Conflicts, 1)

	conflict := result.Conflicts[0]
	assert.Equal(t, "A→B", conflict.BlockKey)
	assert.Equal(t, "T1", conflict.TrainA)
	assert.Equal(t, "T2", conflict.TrainB)
	assert.Equal(t, 5, conflict.OverlapMinutes)
	assert.Equal(t, types.SeverityHigh, conflict.Severity)
	assert.Equal(t, types.StateDetected, conflict.State)

	assert.Equal(t, 1, s.SkippedStops())
	assert.Len(t, s.Conflicts(), 1)
	assert.Contains(t, notifier.names(), "conflicts_replaced")
}

func TestSession_DetectCarriesLifecycleForward(t *testing.T) {
	m := NewManager(nil)
	s := m.Default()
	s.SetSchedule(conflictingSchedule())

	first, err := s.DetectConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Conflicts, 1)

	_, err = s.RegisterConflict(first.Conflicts[0].ID)
	require.NoError(t, err)

	// Unchanged schedule yields the same id, so state must survive
	second, err := s.DetectConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, second.Conflicts, 1)
	assert.Equal(t, first.Conflicts[0].ID, second.Conflicts[0].ID)
	assert.Equal(t, types.StateRegistered, second.Conflicts[0].State)
}

func TestSession_LifecycleNotifications(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewManager(notifier)
	s := m.Default()
	s.SetSchedule(conflictingSchedule())

	result, err := s.DetectConflicts(context.Background())
	require.NoError(t, err)
	id := result.Conflicts[0].ID

	// Confirm before register is rejected and emits nothing
	_, err = s.ConfirmConflict(id)
	assert.ErrorIs(t, err, registry.ErrInvalidTransition)
	assert.NotContains(t, notifier.names(), "conflict_confirmed")

	registered, err := s.RegisterConflict(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateRegistered, registered.State)

	confirmed, err := s.ConfirmConflict(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateConfirmed, confirmed.State)

	assert.True(t, s.AllRegistered())

	events := notifier.names()
	assert.Contains(t, events, "conflict_registered")
	assert.Contains(t, events, "conflict_confirmed")

	_, err = s.RegisterConflict("missing")
	assert.ErrorIs(t, err, registry.ErrConflictNotFound)
}

func TestSession_MergeAnalysis(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewManager(notifier)
	s := m.Default()

	conflicts := []types.Conflict{{
		ID:              types.ConflictID("Alpha→Bravo", "T1", "T2", 0),
		BlockKey:        "Alpha→Bravo",
		TrainA:          "T1",
		TrainB:          "T2",
		OverlapEnd:      4 * 60000,
		OverlapMinutes:  4,
		Severity:        types.SeverityMedium,
		SuggestedAction: "Reduce speed for minor deconfliction",
		State:           types.StateDetected,
		DetectedAt:      time.Now().UTC(),
	}}
	recs := []types.Recommendation{{
		ID:          "Alpha→Bravo:T1:T2:0.0",
		Type:        types.RecommendationHold,
		Description: "Resolve block contention on Alpha→Bravo: let T1 proceed, hold the other",
		Confidence:  80,
	}}

	s.MergeAnalysis(conflicts, recs)

	assert.Len(t, s.Conflicts(), 1)
	require.Len(t, s.Recommendations(), 1)

	accepted, err := s.AcceptRecommendation("Alpha→Bravo:T1:T2:0.0")
	require.NoError(t, err)
	assert.Equal(t, types.RecommendationHold, accepted.Type)
	assert.Empty(t, s.Recommendations())

	_, err = s.AcceptRecommendation("gone")
	assert.ErrorIs(t, err, registry.ErrRecommendationNotFound)

	events := notifier.names()
	assert.Contains(t, events, "conflicts_replaced")
	assert.Contains(t, events, "recommendations_replaced")
	assert.Contains(t, events, "recommendation_accepted")
}

func TestSession_NetworkRoundTrip(t *testing.T) {
	m := NewManager(nil)
	s := m.Default()
	assert.False(t, s.HasNetwork())

	stations := map[string]*types.Station{
		"A": {Code: "A", Name: "Alpha"},
		"B": {Code: "B", Name: "Bravo"},
	}
	sections := []types.Section{{
		FromCode: "A", FromName: "Alpha", ToCode: "B", ToName: "Bravo",
		DistanceKm: 12, TravelMin: 10, LegType: types.LegTypeReal,
	}}

	s.LoadNetwork(stations, sections)
	assert.True(t, s.HasNetwork())

	_, found := s.Adjacency().SectionBetween("A", "B")
	assert.True(t, found)

	path := s.Graph().ShortestPath("Alpha", "Bravo")
	assert.Equal(t, []string{"Alpha", "Bravo"}, path)

	copied := s.Stations()
	delete(copied, "A")
	assert.Len(t, s.Stations(), 2, "accessor must return a copy")
}

func TestSession_AppendSchedule(t *testing.T) {
	m := NewManager(nil)
	s := m.Default()

	s.SetSchedule(conflictingSchedule()[:2])
	s.AppendSchedule(conflictingSchedule()[2:])
	assert.Len(t, s.Schedule(), 3)

	info := s.Info()
	assert.Equal(t, 2, info.Trains)
	assert.Equal(t, 3, info.Stops)
}

func TestManager_CleanupExpired(t *testing.T) {
	m := NewManager(nil)
	stale := m.Create()

	stale.mu.Lock()
	stale.lastAccess = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	removed := m.CleanupExpired(time.Hour)
	assert.Equal(t, 1, removed)

	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Default session survives any cleanup
	require.NotNil(t, m.Default())

	stats := m.Stats()
	assert.Equal(t, 1, stats["total_sessions"])
}
