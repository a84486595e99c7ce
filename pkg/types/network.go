package types

// LegType tells whether a section comes from the source data or was
// inferred during graph augmentation
type LegType string

const (
	// LegTypeReal marks sections present in the source section data
	LegTypeReal LegType = "real"
	// LegTypeInferred marks sections synthesized from station coordinates
	LegTypeInferred LegType = "inferred"
	// LegTypeOrigin marks the first row of a train's timetable
	LegTypeOrigin LegType = "origin"
)

// Valid returns true if the leg type is valid
func (lt LegType) Valid() bool {
	switch lt {
	case LegTypeReal, LegTypeInferred, LegTypeOrigin:
		return true
	}
	return false
}

// Station is one node of the rail network. Coordinates are optional;
// stations without them are excluded from distance-based augmentation.
type Station struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	PlatformCount int      `json:"platform_count"`
	HaltMin       float64  `json:"halt_min"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// HasCoordinates reports whether the station can participate in
// geographic calculations.
func (s *Station) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Section is one directed edge of the rail network.
type Section struct {
	FromCode   string  `json:"from_code"`
	FromName   string  `json:"from_name"`
	ToCode     string  `json:"to_code"`
	ToName     string  `json:"to_name"`
	DistanceKm float64 `json:"distance_km"`
	TravelMin  float64 `json:"travel_min"`
	LegType    LegType `json:"leg_type"`
}
