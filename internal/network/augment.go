package network

import (
	"sort"

	"railwatch/pkg/types"
)

// Augmentation defaults: connect each station to its three nearest
// neighbors and infer travel time from an average line speed.
const (
	DefaultKNearest     = 3
	DefaultAvgSpeedKmph = 70.0
)

// AugmentSectionsKNN densifies the section graph: every station with
// coordinates gets directed edges to its k nearest coordinate-bearing
// neighbors it is not already connected to, with travel time inferred
// from distance at the given average speed. Stations are visited in
// code order so the augmented graph is deterministic for fixed input.
func AugmentSectionsKNN(stations map[string]*types.Station, base []types.Section, k int, avgSpeedKmph float64) []types.Section {
	existing := make(map[[2]string]bool, len(base))
	for i := range base {
		existing[[2]string{base[i].FromCode, base[i].ToCode}] = true
	}

	result := make([]types.Section, len(base))
	copy(result, base)

	codes := make([]string, 0, len(stations))
	for code := range stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	type neighbor struct {
		distanceKm float64
		code       string
	}

	for _, code := range codes {
		st := stations[code]
		if !st.HasCoordinates() {
			continue
		}

		neighbors := make([]neighbor, 0, len(codes))
		for _, otherCode := range codes {
			if otherCode == code {
				continue
			}
			other := stations[otherCode]
			if !other.HasCoordinates() {
				continue
			}
			d := HaversineKm(*st.Latitude, *st.Longitude, *other.Latitude, *other.Longitude)
			neighbors = append(neighbors, neighbor{distanceKm: d, code: otherCode})
		}
		sort.Slice(neighbors, func(i, j int) bool {
			if neighbors[i].distanceKm != neighbors[j].distanceKm {
				return neighbors[i].distanceKm < neighbors[j].distanceKm
			}
			return neighbors[i].code < neighbors[j].code
		})

		added := 0
		for _, nb := range neighbors {
			if added >= k {
				break
			}
			pair := [2]string{code, nb.code}
			if existing[pair] {
				continue
			}
			other := stations[nb.code]
			result = append(result, types.Section{
				FromCode:   code,
				FromName:   st.Name,
				ToCode:     nb.code,
				ToName:     other.Name,
				DistanceKm: nb.distanceKm,
				TravelMin:  (nb.distanceKm / avgSpeedKmph) * 60.0,
				LegType:    types.LegTypeInferred,
			})
			existing[pair] = true
			added++
		}
	}
	return result
}
