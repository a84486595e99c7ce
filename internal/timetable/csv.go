package timetable

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"railwatch/pkg/types"
)

// scheduleHeader is the canonical column order of a schedule CSV.
var scheduleHeader = []string{
	"train_id",
	"train_name",
	"train_type",
	"priority_level",
	"stop_index",
	"station_code",
	"station_name",
	"latitude",
	"longitude",
	"arrive_time_iso",
	"depart_time_iso",
	"eta_minutes_from_start",
	"from_code",
	"to_code",
	"section_travel_time_min",
	"halt_time_min_at_station",
	"leg_type",
}

// WriteSchedule writes stops in the schedule CSV layout, preserving
// row order. Minute quantities round to one decimal, matching the
// writers in the network package.
func WriteSchedule(path string, stops []types.TrainStop) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(scheduleHeader); err != nil {
		return err
	}

	for i := range stops {
		s := &stops[i]
		lat, lon := "", ""
		if s.Latitude != nil {
			lat = strconv.FormatFloat(*s.Latitude, 'f', -1, 64)
		}
		if s.Longitude != nil {
			lon = strconv.FormatFloat(*s.Longitude, 'f', -1, 64)
		}
		record := []string{
			s.TrainID,
			s.TrainName,
			string(s.TrainType),
			string(s.PriorityLevel),
			strconv.Itoa(s.StopIndex),
			s.StationCode,
			s.StationName,
			lat,
			lon,
			s.ArriveTime,
			s.DepartTime,
			fmt.Sprintf("%.1f", s.ETAMinutes),
			s.FromCode,
			s.ToCode,
			fmt.Sprintf("%.1f", s.SectionTravelMin),
			fmt.Sprintf("%.1f", s.HaltMin),
			string(s.LegType),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// LoadSchedule reads a schedule CSV back into stops. A missing file is
// an empty schedule, not an error; rows with no train id are skipped
// and numeric fields default to zero when malformed.
func LoadSchedule(path string) ([]types.TrainStop, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.TrainStop{}, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule %s: %w", path, err)
	}
	if len(rows) == 0 {
		return []types.TrainStop{}, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	floatField := func(row []string, name string) float64 {
		v, err := strconv.ParseFloat(field(row, name), 64)
		if err != nil {
			return 0
		}
		return v
	}
	coordField := func(row []string, name string) *float64 {
		raw := field(row, name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &v
	}

	stops := make([]types.TrainStop, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if field(row, "train_id") == "" {
			continue
		}
		stopIndex, _ := strconv.Atoi(field(row, "stop_index"))
		stops = append(stops, types.TrainStop{
			TrainID:          field(row, "train_id"),
			TrainName:        field(row, "train_name"),
			TrainType:        types.TrainType(field(row, "train_type")),
			PriorityLevel:    types.PriorityLevel(field(row, "priority_level")),
			StopIndex:        stopIndex,
			StationCode:      field(row, "station_code"),
			StationName:      field(row, "station_name"),
			Latitude:         coordField(row, "latitude"),
			Longitude:        coordField(row, "longitude"),
			ArriveTime:       field(row, "arrive_time_iso"),
			DepartTime:       field(row, "depart_time_iso"),
			ETAMinutes:       floatField(row, "eta_minutes_from_start"),
			FromCode:         field(row, "from_code"),
			ToCode:           field(row, "to_code"),
			SectionTravelMin: floatField(row, "section_travel_time_min"),
			HaltMin:          floatField(row, "halt_time_min_at_station"),
			LegType:          types.LegType(field(row, "leg_type")),
		})
	}
	return stops, nil
}
