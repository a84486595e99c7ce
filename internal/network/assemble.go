package network

import (
	"fmt"

	"railwatch/pkg/types"
)

// AssembleOptions names the source files and augmentation parameters
// for one network build.
type AssembleOptions struct {
	CoordStationsCSV string
	StationsCSV      string
	SectionsCSV      string
	KNearest         int
	AvgSpeedKmph     float64
}

// Assemble builds the full augmented network from the configured CSV
// exports: coordinate-bearing stations win the merge and base sections
// are extended with k-nearest inferred legs. An empty station set is an
// error; everything downstream needs at least one node.
func Assemble(opts AssembleOptions) (map[string]*types.Station, []types.Section, error) {
	primary, err := LoadStations(opts.CoordStationsCSV)
	if err != nil {
		return nil, nil, fmt.Errorf("loading stations from %s: %w", opts.CoordStationsCSV, err)
	}
	fallback, err := LoadStations(opts.StationsCSV)
	if err != nil {
		return nil, nil, fmt.Errorf("loading stations from %s: %w", opts.StationsCSV, err)
	}

	stations := MergeStations(primary, fallback)
	if len(stations) == 0 {
		return nil, nil, fmt.Errorf("no stations found in %s or %s", opts.CoordStationsCSV, opts.StationsCSV)
	}

	base, err := LoadSections(opts.SectionsCSV)
	if err != nil {
		return nil, nil, fmt.Errorf("loading sections from %s: %w", opts.SectionsCSV, err)
	}

	sections := AugmentSectionsKNN(stations, base, opts.KNearest, opts.AvgSpeedKmph)
	return stations, sections, nil
}
