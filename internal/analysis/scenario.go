package analysis

import (
	"math"
	"sort"

	"railwatch/internal/network"
	"railwatch/pkg/types"
)

// msPerMinute scales scenario minute offsets onto the engine's
// millisecond axis. Offset zero is the scenario reference time.
const msPerMinute = 60000.0

// BuiltTrain is one scenario train after routing: its name path and
// the block occupancies accumulated along it, as engine legs on the
// minute-offset axis.
type BuiltTrain struct {
	ID       string
	Priority int
	Route    []string
	Legs     []types.Leg
}

// buildTrains routes every scenario train by station name and lays its
// block occupancies along the path. Trains with no route are skipped;
// a scenario full of unroutable trains analyzes to nothing rather than
// failing.
func buildTrains(scenario *types.Scenario, graph *network.NameGraph) []BuiltTrain {
	built := make([]BuiltTrain, 0, len(scenario.Trains))
	for i := range scenario.Trains {
		t := &scenario.Trains[i]
		route := graph.ShortestPath(t.Source, t.Destination)
		if len(route) == 0 {
			continue
		}

		current := 0.0
		legs := make([]types.Leg, 0, len(route)-1)
		for j := 0; j+1 < len(route); j++ {
			travel := graph.TravelMin(route[j], route[j+1])
			legs = append(legs, types.Leg{
				TrainID:  t.TrainID,
				BlockKey: types.MakeBlockKey(route[j], route[j+1]),
				Start:    int64(math.Round(current * msPerMinute)),
				End:      int64(math.Round((current + travel) * msPerMinute)),
			})
			current += travel
		}

		built = append(built, BuiltTrain{
			ID:       t.TrainID,
			Priority: t.PriorityLevel.Weight(),
			Route:    route,
			Legs:     legs,
		})
	}
	return built
}

// trainPair is an unordered conflicting pair, stored sorted.
type trainPair [2]string

func makePair(a, b string) trainPair {
	if a > b {
		a, b = b, a
	}
	return trainPair{a, b}
}

// decidePrecedence assigns PROCEED/HOLD per train across the
// conflicting pairs: the higher-priority train proceeds, ties go to
// the lexicographically smaller id. Pairs are processed in sorted
// order so repeated runs decide identically.
func decidePrecedence(pairs map[trainPair]bool, priority map[string]int) map[string]types.PrecedenceAction {
	ordered := make([]trainPair, 0, len(pairs))
	for p := range pairs {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i][0] != ordered[j][0] {
			return ordered[i][0] < ordered[j][0]
		}
		return ordered[i][1] < ordered[j][1]
	})

	decisions := make(map[string]types.PrecedenceAction, len(ordered)*2)
	for _, p := range ordered {
		a, b := p[0], p[1]
		winner, loser := a, b
		if priority[b] > priority[a] {
			winner, loser = b, a
		}
		decisions[winner] = types.ActionProceed
		decisions[loser] = types.ActionHold
	}
	return decisions
}
