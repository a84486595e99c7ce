package network

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"railwatch/pkg/types"
)

// WriteStations writes the merged station set in the master stations
// CSV layout, sorted by code so re-runs produce identical files.
func WriteStations(path string, stations map[string]*types.Station) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Station Code", "Station Name", "Platform Count", "Halt Time (mins)", "Latitude", "Longitude"}); err != nil {
		return err
	}

	codes := make([]string, 0, len(stations))
	for code := range stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		st := stations[code]
		lat, lon := "", ""
		if st.HasCoordinates() {
			lat = strconv.FormatFloat(*st.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(*st.Longitude, 'f', -1, 64)
		}
		record := []string{
			st.Code,
			st.Name,
			strconv.Itoa(st.PlatformCount),
			strconv.FormatFloat(st.HaltMin, 'f', -1, 64),
			lat,
			lon,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteSections writes sections in the augmented sections CSV layout,
// preserving batch order. Distances round to three decimals and travel
// times to one, keeping the files diff-friendly between runs.
func WriteSections(path string, sections []types.Section) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"From Station Code", "From Station Name", "To Station Code", "To Station Name", "Distance (km)", "Average Travel Time (mins)", "Leg Type"}); err != nil {
		return err
	}

	for i := range sections {
		s := &sections[i]
		record := []string{
			s.FromCode,
			s.FromName,
			s.ToCode,
			s.ToName,
			fmt.Sprintf("%.3f", s.DistanceKm),
			fmt.Sprintf("%.1f", s.TravelMin),
			string(s.LegType),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
