// Package engine implements the conflict detection core: schedule
// normalization into block-occupancy legs, the interval sweep over
// shared blocks, and severity classification.
package engine

import (
	"time"

	"railwatch/pkg/types"
)

// timestampLayouts are tried in order. Schedule CSVs carry zoneless
// ISO 8601; API payloads may carry full RFC 3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an ISO 8601 timestamp into epoch milliseconds.
// The second return is false when the value is empty or matches no
// known layout.
func ParseTimestamp(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// NormalizeStops turns raw schedule rows into block-occupancy legs.
// Invalid rows are skipped, never rejected: a missing train id, an
// empty block endpoint, an unparseable timestamp, or a non-positive
// occupancy window all drop the row and bump the skipped count. The
// output carries no ordering guarantee; the sweep sorts explicitly.
func NormalizeStops(stops []types.RawStop) (legs []types.Leg, skipped int) {
	legs = make([]types.Leg, 0, len(stops))
	for i := range stops {
		leg, ok := normalizeStop(&stops[i])
		if !ok {
			skipped++
			continue
		}
		legs = append(legs, leg)
	}
	return legs, skipped
}

func normalizeStop(stop *types.RawStop) (types.Leg, bool) {
	if stop.TrainID == "" || stop.FromCode == "" || stop.ToCode == "" {
		return types.Leg{}, false
	}
	start, ok := ParseTimestamp(stop.ArriveTime)
	if !ok {
		return types.Leg{}, false
	}
	end, ok := ParseTimestamp(stop.DepartTime)
	if !ok {
		return types.Leg{}, false
	}
	// Zero-duration occupancy is not a basis for conflict.
	if end <= start {
		return types.Leg{}, false
	}
	return types.Leg{
		TrainID:  stop.TrainID,
		BlockKey: types.MakeBlockKey(stop.FromCode, stop.ToCode),
		Start:    start,
		End:      end,
	}, true
}
