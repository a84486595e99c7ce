package types

import (
	"fmt"
	"time"
)

// BlockSeparator joins the two endpoints of a directed block key.
// "A→B" and "B→A" are distinct blocks.
const BlockSeparator = "→"

// MakeBlockKey builds the canonical key for the directed block from
// one station to another.
func MakeBlockKey(from, to string) string {
	return from + BlockSeparator + to
}

// ConflictSeverity represents how urgent a detected conflict is
type ConflictSeverity string

const (
	// SeverityHigh indicates an overlap long enough to require holding a train
	SeverityHigh ConflictSeverity = "high"
	// SeverityMedium indicates an overlap resolvable by speed adjustment
	SeverityMedium ConflictSeverity = "medium"
	// SeverityLow indicates a marginal overlap worth operator attention
	SeverityLow ConflictSeverity = "low"
)

// Valid returns true if the severity is valid
func (cs ConflictSeverity) Valid() bool {
	switch cs {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Weight returns a numeric rank for ordering conflicts by severity.
func (cs ConflictSeverity) Weight() int {
	switch cs {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// LifecycleState represents where a conflict sits in the operator
// acknowledgment workflow
type LifecycleState string

const (
	// StateDetected is the initial state of every conflict entering the registry
	StateDetected LifecycleState = "detected"
	// StateRegistered means the operator acknowledged the conflict and intends to act
	StateRegistered LifecycleState = "registered"
	// StateConfirmed means the operator verified the mitigation is in place
	StateConfirmed LifecycleState = "confirmed"
)

// Valid returns true if the lifecycle state is valid
func (ls LifecycleState) Valid() bool {
	switch ls {
	case StateDetected, StateRegistered, StateConfirmed:
		return true
	}
	return false
}

// Acknowledged reports whether the operator has at least registered
// the conflict.
func (ls LifecycleState) Acknowledged() bool {
	return ls == StateRegistered || ls == StateConfirmed
}

// ConflictCandidate is a pair of legs found occupying the same block
// with strictly overlapping windows. TrainA/TrainB ordering follows
// first encounter in the start-sorted sweep and is stable for a fixed
// input.
type ConflictCandidate struct {
	BlockKey       string `json:"block_key"`
	TrainA         string `json:"train_a"`
	TrainB         string `json:"train_b"`
	OverlapStart   int64  `json:"overlap_start"`
	OverlapEnd     int64  `json:"overlap_end"`
	OverlapMinutes int    `json:"overlap_minutes"`
}

// Conflict is the registry's record of a classified candidate plus
// its lifecycle state. Only the registry mutates a Conflict after
// creation.
type Conflict struct {
	ID              string           `json:"id"`
	BlockKey        string           `json:"block_key"`
	TrainA          string           `json:"train_a"`
	TrainB          string           `json:"train_b"`
	OverlapStart    int64            `json:"overlap_start"`
	OverlapEnd      int64            `json:"overlap_end"`
	OverlapMinutes  int              `json:"overlap_minutes"`
	Severity        ConflictSeverity `json:"severity"`
	SuggestedAction string           `json:"suggested_action"`
	State           LifecycleState   `json:"state"`
	DetectedAt      time.Time        `json:"detected_at"`
}

// ConflictID derives the deterministic identifier for a conflict so
// that re-running detection on an unchanged schedule yields identical
// ids.
func ConflictID(blockKey, trainA, trainB string, overlapStart int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", blockKey, trainA, trainB, overlapStart)
}

// Validate checks if the conflict record is internally consistent
func (c *Conflict) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("conflict id cannot be empty")
	}
	if c.TrainA == c.TrainB {
		return fmt.Errorf("conflict trains must differ: %s", c.TrainA)
	}
	if c.OverlapMinutes <= 0 {
		return fmt.Errorf("conflict overlap must be positive, got %d", c.OverlapMinutes)
	}
	if !c.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", c.Severity)
	}
	if !c.State.Valid() {
		return fmt.Errorf("invalid lifecycle state: %s", c.State)
	}
	return nil
}
