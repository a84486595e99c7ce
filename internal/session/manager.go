// Package session owns the per-session working state: the loaded rail
// network, the active timetable, and the conflict registry. Conflict
// state lives and dies with its session; nothing here touches disk.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"railwatch/internal/engine"
	"railwatch/internal/network"
	"railwatch/internal/registry"
	"railwatch/pkg/types"
)

// ErrSessionNotFound is returned when a session id resolves to nothing
var ErrSessionNotFound = errors.New("session not found")

// Notifier receives registry mutation events for the live feed.
// Implementations must never block; a slow consumer is the consumer's
// problem, not the registry's.
type Notifier interface {
	ConflictsReplaced(sessionID string, conflicts []types.Conflict)
	ConflictRegistered(sessionID string, conflict types.Conflict)
	ConflictConfirmed(sessionID string, conflict types.Conflict)
	RecommendationsReplaced(sessionID string, recommendations []types.Recommendation)
	RecommendationAccepted(sessionID string, recommendation types.Recommendation)
}

type noopNotifier struct{}

func (noopNotifier) ConflictsReplaced(string, []types.Conflict) {}
func (noopNotifier) ConflictRegistered(string, types.Conflict) {}
func (noopNotifier) ConflictConfirmed(string, types.Conflict) {}
func (noopNotifier) RecommendationsReplaced(string, []types.Recommendation) {}
func (noopNotifier) RecommendationAccepted(string, types.Recommendation) {}

// Session carries everything one operator works against
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	lastAccess time.Time
	stations   map[string]*types.Station
	sections   []types.Section
	adjacency  network.Adjacency
	graph      *network.NameGraph
	schedule   []types.TrainStop
	skipped    int

	registry *registry.Registry
	detector *engine.Detector
	notifier Notifier
}

// Info is the wire summary of a session
type Info struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	LastAccess    time.Time `json:"last_access"`
	Trains        int       `json:"trains"`
	Stops         int       `json:"stops"`
	Conflicts     int       `json:"conflicts"`
	AllRegistered bool      `json:"all_registered"`
}

func newSession(notifier Notifier) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		lastAccess: now,
		registry:   registry.NewRegistry(),
		detector:   engine.NewDetector(),
		notifier:   notifier,
	}
}

func (s *Session) touch() {
	s.lastAccess = time.Now().UTC()
}

// LoadNetwork installs the station and section model for this session
// and rebuilds the derived indexes
func (s *Session) LoadNetwork(stations map[string]*types.Station, sections []types.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stations = stations
	s.sections = sections
	s.adjacency = network.BuildAdjacency(sections)
	s.graph = network.BuildNameGraph(sections)
	s.touch()
}

// HasNetwork reports whether a network has been loaded
func (s *Session) HasNetwork() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations) > 0
}

// SetSchedule replaces the session timetable
func (s *Session) SetSchedule(stops []types.TrainStop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule = stops
	s.touch()
}

// AppendSchedule adds stops to the session timetable
func (s *Session) AppendSchedule(stops []types.TrainStop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule = append(s.schedule, stops...)
	s.touch()
}

// Stations returns a copy of the station index
func (s *Session) Stations() map[string]*types.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*types.Station, len(s.stations))
	for code, st := range s.stations {
		out[code] = st
	}
	return out
}

// Sections returns a copy of the section list
func (s *Session) Sections() []types.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// Adjacency returns the section index keyed by from-code
func (s *Session) Adjacency() network.Adjacency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adjacency
}

// Graph returns the name-keyed route graph
func (s *Session) Graph() *network.NameGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Schedule returns a copy of the session timetable
func (s *Session) Schedule() []types.TrainStop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.TrainStop, len(s.schedule))
	copy(out, s.schedule)
	return out
}

// SkippedStops returns the skip count from the last detection pass
func (s *Session) SkippedStops() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipped
}

// DetectConflicts runs the detection pipeline over the session
// timetable and installs the result as the authoritative conflict set.
// Lifecycle state carries forward for unchanged conflict ids, so the
// returned conflicts reflect operator acknowledgments already made.
func (s *Session) DetectConflicts(ctx context.Context) (*engine.DetectionResult, error) {
	stops := s.Schedule()

	raw := make([]types.RawStop, 0, len(stops))
	for i := range stops {
		raw = append(raw, stops[i].RawStop())
	}

	result, err := s.detector.Detect(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.registry.ReplaceConflicts(result.Conflicts)
	current := s.registry.Conflicts()
	result.Conflicts = current

	s.mu.Lock()
	s.skipped = result.SkippedStops
	s.touch()
	s.mu.Unlock()

	s.notifier.ConflictsReplaced(s.ID, current)
	return result, nil
}

// MergeAnalysis installs a scenario analysis batch: conflicts replace
// the registry set and recommendations replace the list wholesale
func (s *Session) MergeAnalysis(conflicts []types.Conflict, recommendations []types.Recommendation) {
	s.registry.ReplaceConflicts(conflicts)
	s.registry.ReplaceRecommendations(recommendations)

	s.mu.Lock()
	s.touch()
	s.mu.Unlock()

	s.notifier.ConflictsReplaced(s.ID, s.registry.Conflicts())
	s.notifier.RecommendationsReplaced(s.ID, s.registry.Recommendations())
}

// Conflicts returns the current conflict set in insertion order
func (s *Session) Conflicts() []types.Conflict {
	return s.registry.Conflicts()
}

// AllRegistered reports whether every conflict has been acknowledged
func (s *Session) AllRegistered() bool {
	return s.registry.AllRegistered()
}

// RegisterConflict acknowledges a conflict
func (s *Session) RegisterConflict(id string) (types.Conflict, error) {
	conflict, err := s.registry.Register(id)
	if err != nil {
		return conflict, err
	}
	s.notifier.ConflictRegistered(s.ID, conflict)
	return conflict, nil
}

// ConfirmConflict confirms a previously registered conflict
func (s *Session) ConfirmConflict(id string) (types.Conflict, error) {
	conflict, err := s.registry.Confirm(id)
	if err != nil {
		return conflict, err
	}
	s.notifier.ConflictConfirmed(s.ID, conflict)
	return conflict, nil
}

// Recommendations returns the active recommendation list
func (s *Session) Recommendations() []types.Recommendation {
	return s.registry.Recommendations()
}

// AcceptRecommendation removes a recommendation from the active list
func (s *Session) AcceptRecommendation(id string) (types.Recommendation, error) {
	rec, err := s.registry.AcceptRecommendation(id)
	if err != nil {
		return rec, err
	}
	s.notifier.RecommendationAccepted(s.ID, rec)
	return rec, nil
}

// Info summarizes the session for listings
func (s *Session) Info() Info {
	s.mu.RLock()
	trains := make(map[string]bool)
	for i := range s.schedule {
		trains[s.schedule[i].TrainID] = true
	}
	info := Info{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastAccess: s.lastAccess,
		Trains:     len(trains),
		Stops:      len(s.schedule),
	}
	s.mu.RUnlock()

	info.Conflicts = len(s.registry.Conflicts())
	info.AllRegistered = s.registry.AllRegistered()
	return info
}

// Manager tracks the active sessions. A default session always exists
// so single-operator deployments never need to mint one explicitly.
type Manager struct {
	mutex     sync.RWMutex
	sessions  map[string]*Session
	defaultID string
	notifier  Notifier
}

// NewManager creates a session manager with its default session.
// A nil notifier disables feed events.
func NewManager(notifier Notifier) *Manager {
	if notifier == nil {
		notifier = noopNotifier{}
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		notifier: notifier,
	}

	def := newSession(notifier)
	m.sessions[def.ID] = def
	m.defaultID = def.ID

	return m
}

// Create mints a new session
func (m *Manager) Create() *Session {
	s := newSession(m.notifier)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[s.ID] = s

	return s
}

// Get retrieves a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Default returns the always-present default session
func (m *Manager) Default() *Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.sessions[m.defaultID]
}

// Resolve returns the session for an id, or the default session when
// the id is empty
func (m *Manager) Resolve(id string) (*Session, error) {
	if id == "" {
		return m.Default(), nil
	}
	return m.Get(id)
}

// List returns summaries of every session, newest first
func (m *Manager) List() []Info {
	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mutex.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// CleanupExpired removes sessions idle longer than maxAge. The default
// session is never removed.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, s := range m.sessions {
		if id == m.defaultID {
			continue
		}
		s.mu.RLock()
		idle := s.lastAccess.Before(cutoff)
		s.mu.RUnlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Stats returns aggregate counts across sessions
func (m *Manager) Stats() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	totalStops := 0
	totalConflicts := 0
	for _, s := range m.sessions {
		s.mu.RLock()
		totalStops += len(s.schedule)
		s.mu.RUnlock()
		totalConflicts += len(s.registry.Conflicts())
	}

	return map[string]interface{}{
		"total_sessions":  len(m.sessions),
		"total_stops":     totalStops,
		"total_conflicts": totalConflicts,
	}
}
