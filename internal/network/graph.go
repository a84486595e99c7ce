package network

import "railwatch/pkg/types"

// fallbackTravelMin stands in when a route hop has no known section.
const fallbackTravelMin = 5.0

// Adjacency maps a station code to its outgoing sections in load
// order.
type Adjacency map[string][]types.Section

// BuildAdjacency indexes sections by their origin station code.
func BuildAdjacency(sections []types.Section) Adjacency {
	adj := make(Adjacency)
	for i := range sections {
		adj[sections[i].FromCode] = append(adj[sections[i].FromCode], sections[i])
	}
	return adj
}

// SectionBetween returns the first known section from one station code
// to another, if any.
func (a Adjacency) SectionBetween(fromCode, toCode string) (types.Section, bool) {
	for _, sec := range a[fromCode] {
		if sec.ToCode == toCode {
			return sec, true
		}
	}
	return types.Section{}, false
}

// NameGraph routes by station display name, the vocabulary scenario
// payloads speak. Neighbor order follows section order so paths are
// deterministic for a fixed network.
type NameGraph struct {
	neighbors map[string][]string
	travelMin map[string]map[string]float64
}

// BuildNameGraph indexes sections by endpoint names.
func BuildNameGraph(sections []types.Section) *NameGraph {
	g := &NameGraph{
		neighbors: make(map[string][]string),
		travelMin: make(map[string]map[string]float64),
	}
	for i := range sections {
		u := sections[i].FromName
		v := sections[i].ToName
		if u == "" || v == "" {
			continue
		}
		if _, ok := g.travelMin[u]; !ok {
			g.travelMin[u] = make(map[string]float64)
		}
		if _, seen := g.travelMin[u][v]; !seen {
			g.neighbors[u] = append(g.neighbors[u], v)
		}
		g.travelMin[u][v] = max(1.0, sections[i].TravelMin)
	}
	return g
}

// ShortestPath finds the fewest-hops path between two station names
// with a breadth-first search. An unknown source or unreachable
// destination yields an empty path.
func (g *NameGraph) ShortestPath(source, destination string) []string {
	if _, ok := g.neighbors[source]; !ok {
		return []string{}
	}

	type queued struct {
		node string
		path []string
	}
	queue := []queued{{node: source, path: []string{source}}}
	seen := map[string]bool{source: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.node == destination {
			return current.path
		}
		for _, nb := range g.neighbors[current.node] {
			if seen[nb] {
				continue
			}
			seen[nb] = true
			path := make([]string, len(current.path), len(current.path)+1)
			copy(path, current.path)
			queue = append(queue, queued{node: nb, path: append(path, nb)})
		}
	}
	return []string{}
}

// TravelMin returns the travel time between two adjacent station
// names, falling back to a conservative default when the hop has no
// known section.
func (g *NameGraph) TravelMin(from, to string) float64 {
	if edges, ok := g.travelMin[from]; ok {
		if tt, ok := edges[to]; ok {
			return tt
		}
	}
	return fallbackTravelMin
}
