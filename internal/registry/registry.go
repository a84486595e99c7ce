// Package registry owns the mutable conflict and recommendation state
// for one analysis session. Detection and classification happen
// outside and deliver complete batches; everything in here is pure
// state transition with no network or storage I/O.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"railwatch/pkg/types"
)

var (
	// ErrConflictNotFound is returned for operator actions on unknown conflict ids
	ErrConflictNotFound = errors.New("conflict not found")
	// ErrRecommendationNotFound is returned when accepting an unknown recommendation
	ErrRecommendationNotFound = errors.New("recommendation not found")
	// ErrInvalidTransition is returned when an operator action skips a lifecycle step
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// Registry is the exclusive owner of one session's conflict set and
// recommendation list. Operator actions are low-frequency, so a single
// mutex serializes every mutation; batch replaces swap the whole set
// atomically, never partially.
type Registry struct {
	mutex           sync.RWMutex
	conflicts       map[string]*types.Conflict
	order           []string
	recommendations []types.Recommendation
	updatedAt       time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conflicts:       make(map[string]*types.Conflict),
		order:           []string{},
		recommendations: []types.Recommendation{},
	}
}

// ReplaceConflicts installs a fresh conflict batch as the authoritative
// set. Lifecycle state is carried forward for conflicts whose
// deterministic id is unchanged, so re-detection on an unchanged
// schedule never discards operator acknowledgments; disappeared ids
// drop their state with the old set. Returns the number of conflicts
// whose state was carried forward.
func (r *Registry) ReplaceConflicts(conflicts []types.Conflict) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	next := make(map[string]*types.Conflict, len(conflicts))
	order := make([]string, 0, len(conflicts))
	carried := 0

	for i := range conflicts {
		c := conflicts[i]
		if _, dup := next[c.ID]; dup {
			continue
		}
		if c.State == "" {
			c.State = types.StateDetected
		}
		if previous, ok := r.conflicts[c.ID]; ok && previous.State.Acknowledged() {
			c.State = previous.State
			carried++
		}
		next[c.ID] = &c
		order = append(order, c.ID)
	}

	r.conflicts = next
	r.order = order
	r.updatedAt = time.Now().UTC()
	return carried
}

// Conflicts returns the active set in batch order.
func (r *Registry) Conflicts() []types.Conflict {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]types.Conflict, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.conflicts[id])
	}
	return out
}

// Conflict returns a single conflict by id.
func (r *Registry) Conflict(id string) (types.Conflict, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, ok := r.conflicts[id]
	if !ok {
		return types.Conflict{}, fmt.Errorf("%w: %s", ErrConflictNotFound, id)
	}
	return *c, nil
}

// Register acknowledges a conflict. Registering an already Registered
// or Confirmed conflict is a no-op, not an error.
func (r *Registry) Register(id string) (types.Conflict, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	c, ok := r.conflicts[id]
	if !ok {
		return types.Conflict{}, fmt.Errorf("%w: %s", ErrConflictNotFound, id)
	}
	if c.State == types.StateDetected {
		c.State = types.StateRegistered
		r.updatedAt = time.Now().UTC()
	}
	return *c, nil
}

// Confirm marks a registered conflict's mitigation as verified.
// Confirming a Detected conflict is rejected; the operator has to
// register first. Confirming twice is a no-op.
func (r *Registry) Confirm(id string) (types.Conflict, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	c, ok := r.conflicts[id]
	if !ok {
		return types.Conflict{}, fmt.Errorf("%w: %s", ErrConflictNotFound, id)
	}
	switch c.State {
	case types.StateRegistered:
		c.State = types.StateConfirmed
		r.updatedAt = time.Now().UTC()
	case types.StateConfirmed:
		// Already terminal.
	default:
		return *c, fmt.Errorf("%w: cannot confirm %s conflict %s", ErrInvalidTransition, c.State, id)
	}
	return *c, nil
}

// AllRegistered reports whether every active conflict has been at
// least registered. False on an empty set: an operator cannot proceed
// on the strength of no detection having run.
func (r *Registry) AllRegistered() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if len(r.conflicts) == 0 {
		return false
	}
	for _, c := range r.conflicts {
		if !c.State.Acknowledged() {
			return false
		}
	}
	return true
}

// ReplaceRecommendations swaps the active recommendation list
// wholesale. Recommendations are never merged incrementally.
func (r *Registry) ReplaceRecommendations(recommendations []types.Recommendation) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	next := make([]types.Recommendation, len(recommendations))
	copy(next, recommendations)
	r.recommendations = next
	r.updatedAt = time.Now().UTC()
}

// Recommendations returns the active recommendation list.
func (r *Registry) Recommendations() []types.Recommendation {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]types.Recommendation, len(r.recommendations))
	copy(out, r.recommendations)
	return out
}

// AcceptRecommendation removes a recommendation from the active list.
// Accepting never touches any conflict's lifecycle state.
func (r *Registry) AcceptRecommendation(id string) (types.Recommendation, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range r.recommendations {
		if r.recommendations[i].ID != id {
			continue
		}
		accepted := r.recommendations[i]
		r.recommendations = append(r.recommendations[:i], r.recommendations[i+1:]...)
		r.updatedAt = time.Now().UTC()
		return accepted, nil
	}
	return types.Recommendation{}, fmt.Errorf("%w: %s", ErrRecommendationNotFound, id)
}

// UpdatedAt returns when the registry last changed.
func (r *Registry) UpdatedAt() time.Time {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.updatedAt
}

// Stats summarizes the active set for diagnostics and the console.
func (r *Registry) Stats() map[string]interface{} {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	byState := make(map[types.LifecycleState]int)
	bySeverity := make(map[types.ConflictSeverity]int)
	for _, c := range r.conflicts {
		byState[c.State]++
		bySeverity[c.Severity]++
	}

	allRegistered := len(r.conflicts) > 0
	for _, c := range r.conflicts {
		if !c.State.Acknowledged() {
			allRegistered = false
			break
		}
	}

	return map[string]interface{}{
		"total_conflicts":       len(r.conflicts),
		"by_state":              byState,
		"by_severity":           bySeverity,
		"total_recommendations": len(r.recommendations),
		"all_registered":        allRegistered,
	}
}
