// Package timetable builds train schedules over the rail network:
// reproducible random-walk timetables, operator-supplied itineraries,
// and the schedule CSV round trip.
package timetable

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"railwatch/internal/network"
	"railwatch/pkg/types"
)

// Generation defaults. The seed is fixed so two runs over the same
// network produce the same timetable.
const (
	DefaultSeed      int64 = 42
	DefaultNumTrains       = 10
	DefaultStartTime       = "2025-09-19T08:00:00"

	// Routes span five to ten stops; shorter walks are discarded.
	MinRouteStops = 5
	MaxRouteStops = 10

	// routeStepCap bounds a single walk so a dense graph cannot spin.
	routeStepCap = 200
	// startRetries bounds the search for a start with outgoing edges.
	startRetries = 50
)

// timeLayout is the zoneless ISO 8601 layout schedule rows carry.
const timeLayout = "2006-01-02T15:04:05"

// GeneratorOptions controls one schedule generation run. Zero values
// fall back to the defaults above.
type GeneratorOptions struct {
	NumTrains int    `json:"num_trains"`
	StartTime string `json:"start_time_iso"`
	Seed      int64  `json:"seed"`
}

func (o *GeneratorOptions) withDefaults() GeneratorOptions {
	out := *o
	if out.NumTrains <= 0 {
		out.NumTrains = DefaultNumTrains
	}
	if out.StartTime == "" {
		out.StartTime = DefaultStartTime
	}
	if out.Seed == 0 {
		out.Seed = DefaultSeed
	}
	return out
}

// trainMeta is the identity stamped on every row of one train's
// timetable.
type trainMeta struct {
	id       string
	name     string
	ttype    types.TrainType
	priority types.PriorityLevel
}

// Generate walks the section graph and lays out complete timetables
// for up to opts.NumTrains trains. Trains whose walk cannot reach the
// minimum stop count are retried, up to ten attempts per requested
// train, so sparse graphs degrade to fewer trains instead of failing.
func Generate(stations map[string]*types.Station, sections []types.Section, opts GeneratorOptions) ([]types.TrainStop, error) {
	opts = opts.withDefaults()

	start, err := time.Parse(timeLayout, opts.StartTime)
	if err != nil {
		if start, err = time.Parse(time.RFC3339, opts.StartTime); err != nil {
			return nil, fmt.Errorf("invalid start time %q: %w", opts.StartTime, err)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	adj := network.BuildAdjacency(sections)
	codes := sortedCodes(stations)

	schedule := make([]types.TrainStop, 0, opts.NumTrains*MaxRouteStops)
	count := 0
	for attempts := 0; count < opts.NumTrains && attempts < opts.NumTrains*10; attempts++ {
		path := pickRoute(rng, adj, codes, MinRouteStops, MaxRouteStops)
		if len(path) == 0 {
			continue
		}
		origin := stations[path[0].FromCode]
		if origin == nil {
			continue
		}
		count++
		meta := trainMeta{
			id:       fmt.Sprintf("T%03d", count),
			name:     fmt.Sprintf("Auto %d", count),
			ttype:    randomTrainType(rng),
			priority: randomPriority(rng),
		}
		schedule = append(schedule, buildStops(meta, path, stations, start)...)
	}
	return schedule, nil
}

// pickRoute performs one random walk: a random start with outgoing
// edges, then unvisited neighbors until the target leg count or a dead
// end. Walks shorter than the minimum return empty.
func pickRoute(rng *rand.Rand, adj network.Adjacency, codes []string, minStops, maxStops int) []types.Section {
	if len(adj) == 0 || len(codes) == 0 {
		return nil
	}

	start := codes[rng.Intn(len(codes))]
	for i := 0; len(adj[start]) == 0 && i < startRetries; i++ {
		start = codes[rng.Intn(len(codes))]
	}
	if len(adj[start]) == 0 {
		return nil
	}

	visited := map[string]bool{start: true}
	targetLegs := minStops - 1 + rng.Intn(maxStops-minStops+1)
	path := make([]types.Section, 0, targetLegs)
	current := start
	for i := 0; i < routeStepCap; i++ {
		candidates := make([]types.Section, 0, len(adj[current]))
		for _, sec := range adj[current] {
			if !visited[sec.ToCode] {
				candidates = append(candidates, sec)
			}
		}
		if len(candidates) == 0 {
			break
		}
		sec := candidates[rng.Intn(len(candidates))]
		path = append(path, sec)
		visited[sec.ToCode] = true
		current = sec.ToCode
		if len(path) >= targetLegs {
			break
		}
	}
	if len(path) < minStops-1 {
		return nil
	}
	return path
}

// buildStops lays one train's timeline along a section path: an origin
// row with zero travel and arrive==depart==start, then one row per leg
// with travel clamped to at least a minute and the destination halt
// appended before departure. Legs whose destination station is unknown
// are dropped without advancing the stop index.
func buildStops(meta trainMeta, path []types.Section, stations map[string]*types.Station, start time.Time) []types.TrainStop {
	origin := stations[path[0].FromCode]
	if origin == nil {
		return nil
	}

	stops := make([]types.TrainStop, 0, len(path)+1)
	stops = append(stops, types.TrainStop{
		TrainID:          meta.id,
		TrainName:        meta.name,
		TrainType:        meta.ttype,
		PriorityLevel:    meta.priority,
		StopIndex:        0,
		StationCode:      origin.Code,
		StationName:      origin.Name,
		Latitude:         origin.Latitude,
		Longitude:        origin.Longitude,
		ArriveTime:       start.Format(timeLayout),
		DepartTime:       start.Format(timeLayout),
		ETAMinutes:       0,
		FromCode:         "",
		ToCode:           path[0].ToCode,
		SectionTravelMin: 0,
		HaltMin:          origin.HaltMin,
		LegType:          types.LegTypeOrigin,
	})

	elapsed := 0.0
	current := start
	stopIndex := 1
	for i := range path {
		sec := &path[i]
		travel := max(1.0, sec.TravelMin)
		current = current.Add(minutes(travel))
		elapsed += travel

		dest := stations[sec.ToCode]
		if dest == nil {
			continue
		}
		arrive := current.Format(timeLayout)
		halt := max(0.0, dest.HaltMin)
		current = current.Add(minutes(halt))
		elapsed += halt

		stops = append(stops, types.TrainStop{
			TrainID:          meta.id,
			TrainName:        meta.name,
			TrainType:        meta.ttype,
			PriorityLevel:    meta.priority,
			StopIndex:        stopIndex,
			StationCode:      dest.Code,
			StationName:      dest.Name,
			Latitude:         dest.Latitude,
			Longitude:        dest.Longitude,
			ArriveTime:       arrive,
			DepartTime:       current.Format(timeLayout),
			ETAMinutes:       elapsed,
			FromCode:         sec.FromCode,
			ToCode:           sec.ToCode,
			SectionTravelMin: travel,
			HaltMin:          halt,
			LegType:          sec.LegType,
		})
		stopIndex++
	}
	return stops
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func randomTrainType(rng *rand.Rand) types.TrainType {
	all := types.TrainTypes()
	return all[rng.Intn(len(all))]
}

func randomPriority(rng *rand.Rand) types.PriorityLevel {
	all := types.PriorityLevels()
	return all[rng.Intn(len(all))]
}

func sortedCodes(stations map[string]*types.Station) []string {
	codes := make([]string, 0, len(stations))
	for code := range stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
