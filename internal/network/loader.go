package network

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"railwatch/pkg/types"
)

var titleCaser = cases.Title(language.English)

// NormalizeName canonicalizes a station display name so the stations
// file, the sections file, and scenario payloads all agree on casing.
func NormalizeName(name string) string {
	return titleCaser.String(strings.TrimSpace(name))
}

// csvTable is a header-indexed view over one CSV file. Source files
// come from different exports with slightly different header names, so
// lookups go through alias lists.
type csvTable struct {
	header map[string]int
	rows   [][]string
}

func readCSVTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return &csvTable{header: map[string]int{}}, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}
	return &csvTable{header: header, rows: records[1:]}, nil
}

// field returns the first non-empty value among the aliased columns.
func (t *csvTable) field(row []string, aliases ...string) string {
	for _, alias := range aliases {
		idx, ok := t.header[alias]
		if !ok || idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			return v
		}
	}
	return ""
}

func parseFloatOr(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseIntOr(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// LoadStations reads a stations CSV. Latitude/Longitude columns are
// optional; rows without a code are skipped and duplicate codes keep
// whichever row carries coordinates. A missing file yields an empty
// set rather than an error, matching how partial data exports are
// handled everywhere else.
func LoadStations(path string) (map[string]*types.Station, error) {
	stations := make(map[string]*types.Station)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return stations, nil
	}

	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}

	for _, row := range table.rows {
		code := table.field(row, "Station Code", "code")
		if code == "" {
			continue
		}
		name := table.field(row, "Station Name", "name")
		if name == "" {
			name = code
		}

		station := &types.Station{
			Code:          code,
			Name:          NormalizeName(name),
			PlatformCount: parseIntOr(table.field(row, "Platform Count"), 0),
			HaltMin:       parseFloatOr(table.field(row, "Halt Time (mins)", "halt"), 0),
		}
		if latRaw := table.field(row, "Latitude"); latRaw != "" {
			if lonRaw := table.field(row, "Longitude"); lonRaw != "" {
				lat := parseFloatOr(latRaw, 0)
				lon := parseFloatOr(lonRaw, 0)
				station.Latitude = &lat
				station.Longitude = &lon
			}
		}

		if existing, ok := stations[code]; ok {
			if !existing.HasCoordinates() && station.HasCoordinates() {
				stations[code] = station
			}
			continue
		}
		stations[code] = station
	}
	return stations, nil
}

// MergeStations folds the fallback set into the primary one. Primary
// entries win; fallback fills missing name, platform count, and halt
// time on entries both sets share, and contributes stations the
// primary lacks entirely.
func MergeStations(primary, fallback map[string]*types.Station) map[string]*types.Station {
	merged := make(map[string]*types.Station, len(primary)+len(fallback))
	for code, st := range primary {
		c := *st
		merged[code] = &c
	}
	for code, st := range fallback {
		existing, ok := merged[code]
		if !ok {
			c := *st
			merged[code] = &c
			continue
		}
		if existing.Name == "" {
			existing.Name = st.Name
		}
		if existing.PlatformCount == 0 {
			existing.PlatformCount = st.PlatformCount
		}
		if existing.HaltMin == 0 {
			existing.HaltMin = st.HaltMin
		}
	}
	return merged
}

// LoadSections reads a sections CSV into directed edges. Rows missing
// either endpoint or looping a station onto itself are skipped. A
// missing file yields an empty slice.
func LoadSections(path string) ([]types.Section, error) {
	sections := []types.Section{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return sections, nil
	}

	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}

	for _, row := range table.rows {
		fromCode := table.field(row, "From Station Code", "from_code")
		toCode := table.field(row, "To Station Code", "to_code")
		if fromCode == "" || toCode == "" || fromCode == toCode {
			continue
		}
		fromName := table.field(row, "From Station Name", "from", "from_name")
		if fromName == "" {
			fromName = fromCode
		}
		toName := table.field(row, "To Station Name", "to", "to_name")
		if toName == "" {
			toName = toCode
		}

		// Augmented exports carry a leg type column; raw exports
		// hold real track only.
		legType := types.LegTypeReal
		if raw := table.field(row, "Leg Type", "leg_type"); types.LegType(raw) == types.LegTypeInferred {
			legType = types.LegTypeInferred
		}

		sections = append(sections, types.Section{
			FromCode:   fromCode,
			FromName:   NormalizeName(fromName),
			ToCode:     toCode,
			ToName:     NormalizeName(toName),
			DistanceKm: parseFloatOr(table.field(row, "Distance (km)", "distance_km"), 0),
			TravelMin:  parseFloatOr(table.field(row, "Average Travel Time (mins)", "avg_time", "travel_time_min"), 0),
			LegType:    legType,
		})
	}
	return sections, nil
}
