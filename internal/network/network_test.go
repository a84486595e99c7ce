package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/pkg/types"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func coordStation(code, name string, lat, lon float64) *types.Station {
	return &types.Station{Code: code, Name: name, Latitude: &lat, Longitude: &lon}
}

func TestHaversineKm(t *testing.T) {
	t.Run("one degree of longitude at the equator", func(t *testing.T) {
		assert.InDelta(t, 111.19, HaversineKm(0, 0, 0, 1), 0.1)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.1)
	})

	t.Run("zero distance", func(t *testing.T) {
		assert.Zero(t, HaversineKm(28.6139, 77.209, 28.6139, 77.209))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, HaversineKm(28.6139, 77.209, 19.076, 72.8777), HaversineKm(19.076, 72.8777, 28.6139, 77.209), 1e-9)
	})
}

func TestLoadStations(t *testing.T) {
	path := writeTempCSV(t, "stations.csv", `Station Code,Station Name,Platform Count,Halt Time (mins),Latitude,Longitude
NDLS,NEW DELHI,16,5,28.6139,77.2090
GZB,Ghaziabad,8,2,28.6692,77.4538
,Orphan Row,1,1,,
BAD,Bad Numbers,lots,soon,,
`)

	stations, err := LoadStations(path)
	require.NoError(t, err)
	require.Len(t, stations, 3)

	ndls := stations["NDLS"]
	require.NotNil(t, ndls)
	assert.Equal(t, "New Delhi", ndls.Name)
	assert.Equal(t, 16, ndls.PlatformCount)
	assert.Equal(t, 5.0, ndls.HaltMin)
	assert.True(t, ndls.HasCoordinates())

	// Bad numerics fall back to zero values instead of failing the row.
	bad := stations["BAD"]
	require.NotNil(t, bad)
	assert.Zero(t, bad.PlatformCount)
	assert.Zero(t, bad.HaltMin)
	assert.False(t, bad.HasCoordinates())
}

func TestLoadStations_HeaderAliases(t *testing.T) {
	path := writeTempCSV(t, "stations.csv", `code,Station Name,Platform Count,halt
ANVT,Anand Vihar,6,2.5
`)

	stations, err := LoadStations(path)
	require.NoError(t, err)
	require.Contains(t, stations, "ANVT")
	assert.Equal(t, 2.5, stations["ANVT"].HaltMin)
}

func TestLoadStations_MissingFileIsEmpty(t *testing.T) {
	stations, err := LoadStations(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Empty(t, stations)
}

func TestMergeStations(t *testing.T) {
	primary := map[string]*types.Station{
		"NDLS": coordStation("NDLS", "New Delhi", 28.6139, 77.209),
	}
	primary["NDLS"].PlatformCount = 0 // coordinates file lacks platform data

	fallback := map[string]*types.Station{
		"NDLS": {Code: "NDLS", Name: "New Delhi", PlatformCount: 16, HaltMin: 5},
		"GZB":  {Code: "GZB", Name: "Ghaziabad", PlatformCount: 8, HaltMin: 2},
	}

	merged := MergeStations(primary, fallback)
	require.Len(t, merged, 2)

	ndls := merged["NDLS"]
	assert.True(t, ndls.HasCoordinates())
	assert.Equal(t, 16, ndls.PlatformCount)
	assert.Equal(t, 5.0, ndls.HaltMin)

	assert.Equal(t, 8, merged["GZB"].PlatformCount)
}

func TestLoadSections(t *testing.T) {
	path := writeTempCSV(t, "sections.csv", `From Station Code,From Station Name,To Station Code,To Station Name,Distance (km),Average Travel Time (mins)
NDLS,NEW DELHI,GZB,Ghaziabad,19.7,25
GZB,Ghaziabad,GZB,Ghaziabad,0,0
,,ANVT,Anand Vihar,5,5
`)

	sections, err := LoadSections(path)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	s := sections[0]
	assert.Equal(t, "NDLS", s.FromCode)
	assert.Equal(t, "New Delhi", s.FromName)
	assert.Equal(t, "Ghaziabad", s.ToName)
	assert.Equal(t, 19.7, s.DistanceKm)
	assert.Equal(t, 25.0, s.TravelMin)
	assert.Equal(t, types.LegTypeReal, s.LegType)
}

func TestAugmentSectionsKNN(t *testing.T) {
	stations := map[string]*types.Station{
		"A": coordStation("A", "Alpha", 0, 0),
		"B": coordStation("B", "Bravo", 0, 1),
		"C": coordStation("C", "Charlie", 0, 2),
		"D": coordStation("D", "Delta", 0, 10),
	}
	base := []types.Section{
		{FromCode: "A", FromName: "Alpha", ToCode: "B", ToName: "Bravo", DistanceKm: 110, TravelMin: 90, LegType: types.LegTypeReal},
	}

	augmented := AugmentSectionsKNN(stations, base, 1, DefaultAvgSpeedKmph)

	// One inferred edge per station; A skips its already-connected
	// nearest neighbor and takes the next one.
	require.Len(t, augmented, 5)
	assert.Equal(t, base[0], augmented[0])

	edges := make(map[string]types.Section)
	for _, s := range augmented[1:] {
		assert.Equal(t, types.LegTypeInferred, s.LegType)
		edges[s.FromCode+">"+s.ToCode] = s
	}
	assert.Contains(t, edges, "A>C")
	assert.Contains(t, edges, "B>A")
	assert.Contains(t, edges, "C>B")
	assert.Contains(t, edges, "D>C")

	ac := edges["A>C"]
	assert.InDelta(t, 222.39, ac.DistanceKm, 0.5)
	assert.InDelta(t, (ac.DistanceKm/DefaultAvgSpeedKmph)*60.0, ac.TravelMin, 1e-9)
}

func TestAugmentSectionsKNN_Deterministic(t *testing.T) {
	stations := map[string]*types.Station{
		"A": coordStation("A", "Alpha", 0, 0),
		"B": coordStation("B", "Bravo", 0.5, 0.5),
		"C": coordStation("C", "Charlie", 1, 1),
	}

	first := AugmentSectionsKNN(stations, nil, DefaultKNearest, DefaultAvgSpeedKmph)
	second := AugmentSectionsKNN(stations, nil, DefaultKNearest, DefaultAvgSpeedKmph)
	assert.Equal(t, first, second)
}

func TestNameGraph_ShortestPath(t *testing.T) {
	sections := []types.Section{
		{FromCode: "A", FromName: "Alpha", ToCode: "B", ToName: "Bravo", TravelMin: 10},
		{FromCode: "B", FromName: "Bravo", ToCode: "C", ToName: "Charlie", TravelMin: 0.2},
		{FromCode: "C", FromName: "Charlie", ToCode: "D", ToName: "Delta", TravelMin: 7},
		{FromCode: "A", FromName: "Alpha", ToCode: "D", ToName: "Delta", TravelMin: 90},
	}
	g := BuildNameGraph(sections)

	t.Run("direct edge wins on hops", func(t *testing.T) {
		assert.Equal(t, []string{"Alpha", "Delta"}, g.ShortestPath("Alpha", "Delta"))
	})

	t.Run("multi-hop route", func(t *testing.T) {
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, g.ShortestPath("Alpha", "Charlie"))
	})

	t.Run("unknown source", func(t *testing.T) {
		assert.Empty(t, g.ShortestPath("Nowhere", "Delta"))
	})

	t.Run("unreachable destination", func(t *testing.T) {
		assert.Empty(t, g.ShortestPath("Charlie", "Alpha"))
	})

	t.Run("travel time floors at one minute", func(t *testing.T) {
		assert.Equal(t, 1.0, g.TravelMin("Bravo", "Charlie"))
		assert.Equal(t, 10.0, g.TravelMin("Alpha", "Bravo"))
	})

	t.Run("unknown hop uses fallback", func(t *testing.T) {
		assert.Equal(t, fallbackTravelMin, g.TravelMin("Delta", "Alpha"))
	})
}

func TestWriteStations_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master_stations.csv")

	stations := map[string]*types.Station{
		"NDLS": coordStation("NDLS", "New Delhi", 28.6139, 77.209),
		"GZB":  {Code: "GZB", Name: "Ghaziabad", PlatformCount: 8, HaltMin: 2},
	}
	stations["NDLS"].PlatformCount = 16
	stations["NDLS"].HaltMin = 5

	require.NoError(t, WriteStations(path, stations))

	loaded, err := LoadStations(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 16, loaded["NDLS"].PlatformCount)
	assert.True(t, loaded["NDLS"].HasCoordinates())
	assert.InDelta(t, 28.6139, *loaded["NDLS"].Latitude, 1e-9)
	assert.False(t, loaded["GZB"].HasCoordinates())
}

func TestWriteSections_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "augmented_sections.csv")

	sections := []types.Section{
		{FromCode: "NDLS", FromName: "New Delhi", ToCode: "GZB", ToName: "Ghaziabad", DistanceKm: 19.7123, TravelMin: 25.04, LegType: types.LegTypeReal},
		{FromCode: "GZB", FromName: "Ghaziabad", ToCode: "ANVT", ToName: "Anand Vihar", DistanceKm: 12.4, TravelMin: 14.96, LegType: types.LegTypeInferred},
	}
	require.NoError(t, WriteSections(path, sections))

	loaded, err := LoadSections(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "NDLS", loaded[0].FromCode)
	assert.Equal(t, 19.712, loaded[0].DistanceKm)
	assert.Equal(t, 25.0, loaded[0].TravelMin)
	assert.Equal(t, types.LegTypeReal, loaded[0].LegType)
	assert.Equal(t, 15.0, loaded[1].TravelMin)
	assert.Equal(t, types.LegTypeInferred, loaded[1].LegType, "leg type survives the round trip")
}
