package analysis

import (
	"fmt"

	"railwatch/pkg/types"
)

// Heuristic confidence: higher when a precedence decision names a
// clear winner for the pair.
const (
	confidenceWithWinner = 80
	confidenceNoWinner   = 60
)

// heuristicRecommendations synthesizes one recommendation per detected
// conflict from the precedence decisions. The id embeds the block,
// both trains, and the window start so re-analyzing an unchanged
// scenario reproduces it.
func heuristicRecommendations(conflicts []types.RawConflict, decisions map[string]types.PrecedenceAction) []types.Recommendation {
	recs := make([]types.Recommendation, 0, len(conflicts))
	for i := range conflicts {
		c := &conflicts[i]

		winner := ""
		if decisions[c.TrainA] == types.ActionProceed {
			winner = c.TrainA
		} else if decisions[c.TrainB] == types.ActionProceed {
			winner = c.TrainB
		}

		proceeding := winner
		confidence := confidenceWithWinner
		if winner == "" {
			proceeding = c.TrainA
			confidence = confidenceNoWinner
		}

		overlapMin := max(0.0, c.End-c.Start)
		description := fmt.Sprintf("Resolve block contention on %s: let %s proceed, hold the other", c.Block, proceeding)
		recs = append(recs, types.Recommendation{
			ID:          fmt.Sprintf("%s:%s:%s:%.1f", c.Block, c.TrainA, c.TrainB, c.Start),
			Type:        types.InferRecommendationType(description),
			Description: description,
			Impact:      fmt.Sprintf("-%.0f min potential delay", overlapMin),
			Confidence:  confidence,
		})
	}
	return recs
}
