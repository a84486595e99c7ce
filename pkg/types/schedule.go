// Package types provides core data structures and type definitions
// for the railwatch engine: schedule stops, block-occupancy legs,
// conflicts, recommendations, and the rail network model.
package types

// TrainType represents the service category of a train
type TrainType string

const (
	TrainTypePassenger TrainType = "Passenger"
	TrainTypeExpress   TrainType = "Express"
	TrainTypeSuperfast TrainType = "Superfast"
	TrainTypeFreight   TrainType = "Freight"
	TrainTypeSpecial   TrainType = "Special"
)

// Valid returns true if the train type is valid
func (tt TrainType) Valid() bool {
	switch tt {
	case TrainTypePassenger, TrainTypeExpress, TrainTypeSuperfast, TrainTypeFreight, TrainTypeSpecial:
		return true
	}
	return false
}

// TrainTypes lists every valid train type in generation order.
func TrainTypes() []TrainType {
	return []TrainType{TrainTypePassenger, TrainTypeExpress, TrainTypeSuperfast, TrainTypeFreight, TrainTypeSpecial}
}

// PriorityLevel represents the dispatch priority of a train
type PriorityLevel string

const (
	// PriorityHigh marks trains that win precedence on contested blocks
	PriorityHigh PriorityLevel = "High"
	// PriorityMedium is the default for generated and operator trains
	PriorityMedium PriorityLevel = "Medium"
	// PriorityLow marks trains that yield first
	PriorityLow PriorityLevel = "Low"
)

// Valid returns true if the priority level is valid
func (pl PriorityLevel) Valid() bool {
	switch pl {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Weight returns the numeric precedence weight used by the decision
// pipeline. Unknown levels weigh the same as low.
func (pl PriorityLevel) Weight() int {
	switch pl {
	case PriorityHigh:
		return 5
	case PriorityMedium:
		return 3
	default:
		return 1
	}
}

// PriorityLevels lists every valid priority level in generation order.
func PriorityLevels() []PriorityLevel {
	return []PriorityLevel{PriorityHigh, PriorityMedium, PriorityLow}
}

// RawStop is one row of an ingested schedule before normalization.
// Every field is optional at this boundary; the normalizer decides
// which rows survive. Timestamps are ISO 8601 strings as delivered.
type RawStop struct {
	TrainID    string `json:"train_id"`
	FromCode   string `json:"from_code"`
	ToCode     string `json:"to_code"`
	ArriveTime string `json:"arrive_time_iso"`
	DepartTime string `json:"depart_time_iso"`
}

// Leg is one train's occupancy of one directed block. Start and End
// are epoch milliseconds with End > Start; legs violating that are
// dropped during normalization and never constructed.
type Leg struct {
	TrainID  string `json:"train_id"`
	BlockKey string `json:"block_key"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
}

// TrainStop is one row of a generated timetable, mirroring the
// schedule CSV layout column for column.
type TrainStop struct {
	TrainID          string        `json:"train_id"`
	TrainName        string        `json:"train_name"`
	TrainType        TrainType     `json:"train_type"`
	PriorityLevel    PriorityLevel `json:"priority_level"`
	StopIndex        int           `json:"stop_index"`
	StationCode      string        `json:"station_code"`
	StationName      string        `json:"station_name"`
	Latitude         *float64      `json:"latitude"`
	Longitude        *float64      `json:"longitude"`
	ArriveTime       string        `json:"arrive_time_iso"`
	DepartTime       string        `json:"depart_time_iso"`
	ETAMinutes       float64       `json:"eta_minutes_from_start"`
	FromCode         string        `json:"from_code"`
	ToCode           string        `json:"to_code"`
	SectionTravelMin float64       `json:"section_travel_time_min"`
	HaltMin          float64       `json:"halt_time_min_at_station"`
	LegType          LegType       `json:"leg_type"`
}

// RawStop converts the timetable row into the normalizer's input
// shape. Origin rows carry an empty from code and normalize to
// nothing, which is intended: a train occupies no block while parked
// at its first station.
func (ts *TrainStop) RawStop() RawStop {
	return RawStop{
		TrainID:    ts.TrainID,
		FromCode:   ts.FromCode,
		ToCode:     ts.ToCode,
		ArriveTime: ts.ArriveTime,
		DepartTime: ts.DepartTime,
	}
}
