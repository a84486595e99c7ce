package timetable

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"railwatch/internal/network"
	"railwatch/pkg/types"
)

var (
	// ErrNoPath means no leg could be built from the supplied chain.
	ErrNoPath = errors.New("no valid path built from provided stations")
	// ErrUnknownOrigin means the first station of the chain is not in
	// the network.
	ErrUnknownOrigin = errors.New("origin not found")
)

// ItineraryRequest describes an operator-supplied train: an ordered
// station-code chain plus identity fields, all optional except the
// chain itself.
type ItineraryRequest struct {
	TrainID       string              `json:"train_id"`
	TrainName     string              `json:"train_name"`
	TrainType     types.TrainType     `json:"train_type"`
	PriorityLevel types.PriorityLevel `json:"priority_level"`
	Stations      []string            `json:"stations"`
	StartTime     string              `json:"start_time_iso"`
}

// BuildItinerary converts a station chain into a scheduled train. Each
// hop reuses an existing section when the adjacency has one; otherwise
// a direct inferred leg is fabricated from coordinates, and hops where
// either endpoint lacks them are skipped. The timeline is laid out the
// same way generated trains are.
func BuildItinerary(stations map[string]*types.Station, adj network.Adjacency, req *ItineraryRequest) ([]types.TrainStop, error) {
	startTime := req.StartTime
	if startTime == "" {
		startTime = DefaultStartTime
	}
	start, err := time.Parse(timeLayout, startTime)
	if err != nil {
		if start, err = time.Parse(time.RFC3339, startTime); err != nil {
			return nil, fmt.Errorf("invalid start time %q: %w", startTime, err)
		}
	}

	path := make([]types.Section, 0, len(req.Stations))
	for i := 0; i+1 < len(req.Stations); i++ {
		a, b := req.Stations[i], req.Stations[i+1]
		if sec, ok := adj.SectionBetween(a, b); ok {
			path = append(path, sec)
			continue
		}
		sa, sb := stations[a], stations[b]
		if sa == nil || sb == nil || !sa.HasCoordinates() || !sb.HasCoordinates() {
			continue
		}
		dist := network.HaversineKm(*sa.Latitude, *sa.Longitude, *sb.Latitude, *sb.Longitude)
		path = append(path, types.Section{
			FromCode:   a,
			FromName:   sa.Name,
			ToCode:     b,
			ToName:     sb.Name,
			DistanceKm: dist,
			TravelMin:  (dist / network.DefaultAvgSpeedKmph) * 60.0,
			LegType:    types.LegTypeInferred,
		})
	}
	if len(path) == 0 {
		return nil, ErrNoPath
	}
	if stations[path[0].FromCode] == nil {
		return nil, ErrUnknownOrigin
	}

	meta := trainMeta{
		id:       req.TrainID,
		name:     req.TrainName,
		ttype:    req.TrainType,
		priority: req.PriorityLevel,
	}
	if meta.id == "" {
		meta.id = fallbackTrainID(req.Stations)
	}
	if meta.name == "" {
		meta.name = "User Train"
	}
	if !meta.ttype.Valid() {
		meta.ttype = types.TrainTypePassenger
	}
	if !meta.priority.Valid() {
		meta.priority = types.PriorityMedium
	}
	return buildStops(meta, path, stations, start), nil
}

// fallbackTrainID derives a stable user-train id from the station
// chain, so re-submitting the same chain yields the same id.
func fallbackTrainID(chain []string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join(chain, ",")))
	return fmt.Sprintf("USR%05d", h.Sum32()%100000)
}
