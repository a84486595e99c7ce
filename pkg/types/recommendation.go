package types

import "strings"

// DefaultConfidence is assumed when an external recommendation record
// carries no confidence of its own.
const DefaultConfidence = 75

// RecommendationType represents the kind of operator action suggested
type RecommendationType string

const (
	// RecommendationHold suggests holding a train at its current position
	RecommendationHold RecommendationType = "hold"
	// RecommendationPriority suggests granting one train precedence
	RecommendationPriority RecommendationType = "priority"
	// RecommendationRoute suggests diverting a train to an alternate path.
	// Never inferred from text; only honored when a payload carries it.
	RecommendationRoute RecommendationType = "route"
)

// Valid returns true if the recommendation type is valid
func (rt RecommendationType) Valid() bool {
	switch rt {
	case RecommendationHold, RecommendationPriority, RecommendationRoute:
		return true
	}
	return false
}

// InferRecommendationType classifies a description by keyword match:
// anything mentioning a hold becomes a hold suggestion, everything
// else is treated as a precedence call.
func InferRecommendationType(description string) RecommendationType {
	if strings.Contains(strings.ToLower(description), "hold") {
		return RecommendationHold
	}
	return RecommendationPriority
}

// ClampConfidence bounds a confidence score to the 0-100 scale.
func ClampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

// Recommendation is an operator-facing suggestion, either synthesized
// from a conflict or received from the analysis collaborator.
type Recommendation struct {
	ID          string             `json:"id"`
	Type        RecommendationType `json:"type"`
	Description string             `json:"description"`
	Explanation string             `json:"explanation,omitempty"`
	Impact      string             `json:"impact"`
	Confidence  int                `json:"confidence"`
}
