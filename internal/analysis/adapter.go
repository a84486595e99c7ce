package analysis

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"railwatch/pkg/types"
)

// rawRecommendation is the loose shape external recommendation records
// arrive in. Every field is optional; defaulting happens in the
// decoder.
type rawRecommendation struct {
	ID          string `mapstructure:"id"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
	Explanation string `mapstructure:"explanation"`
	Impact      string `mapstructure:"impact"`
	Confidence  *int   `mapstructure:"confidence"`
}

// DecodeRecommendations normalizes loose payload maps into
// recommendations. Records that fail to decode or carry no description
// are skipped, never abort the batch. Defaults: confidence 75 when
// absent (always clamped to 0-100), impact empty, id derived from the
// batch position, type inferred from the description unless the
// payload names a valid one.
func DecodeRecommendations(payloads []map[string]interface{}) []types.Recommendation {
	recs := make([]types.Recommendation, 0, len(payloads))
	for _, payload := range payloads {
		var raw rawRecommendation
		if err := mapstructure.Decode(payload, &raw); err != nil {
			continue
		}
		if raw.Description == "" {
			continue
		}

		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("rec-%03d", len(recs)+1)
		}

		recType := types.RecommendationType(raw.Type)
		if !recType.Valid() {
			recType = types.InferRecommendationType(raw.Description)
		}

		confidence := types.DefaultConfidence
		if raw.Confidence != nil {
			confidence = *raw.Confidence
		}

		recs = append(recs, types.Recommendation{
			ID:          id,
			Type:        recType,
			Description: raw.Description,
			Explanation: raw.Explanation,
			Impact:      raw.Impact,
			Confidence:  types.ClampConfidence(confidence),
		})
	}
	return recs
}

// CandidatesFromRaw converts boundary conflicts, whose windows are
// minute offsets from the scenario reference time, into engine
// candidates on the epoch-ms axis. Windows that round to zero minutes
// are dropped, matching the sweep's rule that touching is not
// conflicting.
func CandidatesFromRaw(conflicts []types.RawConflict, reference time.Time) []types.ConflictCandidate {
	refMs := reference.UnixMilli()
	candidates := make([]types.ConflictCandidate, 0, len(conflicts))
	for i := range conflicts {
		c := &conflicts[i]
		overlapMin := int(math.Round(c.End - c.Start))
		if overlapMin <= 0 {
			continue
		}
		candidates = append(candidates, types.ConflictCandidate{
			BlockKey:       c.Block,
			TrainA:         c.TrainA,
			TrainB:         c.TrainB,
			OverlapStart:   refMs + int64(math.Round(c.Start*msPerMinute)),
			OverlapEnd:     refMs + int64(math.Round(c.End*msPerMinute)),
			OverlapMinutes: overlapMin,
		})
	}
	return candidates
}

// MineNarrative extracts list items from a markdown narrative as loose
// recommendation records, ready for DecodeRecommendations. Used when
// the collaborator writes prose instead of structured output.
func MineNarrative(narrative string) []map[string]interface{} {
	md := goldmark.New()
	reader := text.NewReader([]byte(narrative))
	doc := md.Parser().Parse(reader)

	items := []map[string]interface{}{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.ListItem); !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if textNode, ok := child.(*ast.Text); ok {
				_, _ = buf.Write(textNode.Segment.Value(reader.Source()))
			}
			return ast.WalkContinue, nil
		})

		if line := strings.TrimSpace(buf.String()); line != "" {
			items = append(items, map[string]interface{}{"description": line})
		}
		return ast.WalkSkipChildren, nil
	})
	return items
}
