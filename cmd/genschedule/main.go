// genschedule is a command-line tool that assembles the augmented rail
// network and generates a randomized train schedule offline, writing
// the same CSV artifacts as the simulation endpoint without starting
// the API server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"railwatch/internal/config"
	"railwatch/internal/network"
	"railwatch/internal/timetable"
	"railwatch/pkg/types"
)

const outDirPermission = 0o755

// ScenarioFile describes one offline generation run. Omitted fields
// keep the configured defaults, explicit flags win over the file.
type ScenarioFile struct {
	Trains  int    `yaml:"trains"`
	Seed    int64  `yaml:"seed"`
	Start   string `yaml:"start"`
	Network struct {
		GeoStationsCSV string  `yaml:"geo_stations_csv"`
		StationsCSV    string  `yaml:"stations_csv"`
		SectionsCSV    string  `yaml:"sections_csv"`
		KNearest       int     `yaml:"k_nearest"`
		AvgSpeedKmph   float64 `yaml:"avg_speed_kmph"`
	} `yaml:"network"`
	OutDir string `yaml:"out_dir"`
}

// GenerationStats tracks what one run produced
type GenerationStats struct {
	Stations         int           `json:"stations"`
	RealSections     int           `json:"real_sections"`
	InferredSections int           `json:"inferred_sections"`
	Trains           int           `json:"trains"`
	Stops            int           `json:"stops"`
	Duration         time.Duration `json:"duration"`
	Files            []string      `json:"files"`
}

// Generator runs the assemble-generate-write pipeline
type Generator struct {
	trains   int
	seed     int64
	start    string
	assemble network.AssembleOptions
	outDir   string
	stats    *GenerationStats
}

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Path to a YAML scenario file")
		trains       = flag.Int("trains", 0, "Number of trains to generate")
		seed         = flag.Int64("seed", 0, "Random seed for route selection")
		start        = flag.String("start", "", "Schedule start time, e.g. 2025-09-19T08:00:00")
		geoCSV       = flag.String("geo", "", "Path to the coordinate-bearing stations CSV")
		stationsCSV  = flag.String("stations", "", "Path to the fallback stations CSV")
		sectionsCSV  = flag.String("sections", "", "Path to the sections CSV")
		kNearest     = flag.Int("k", 0, "Inferred legs per station")
		speed        = flag.Float64("speed", 0, "Average speed in km/h for inferred legs")
		outDir       = flag.String("out", "", "Output directory for generated CSVs")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gen := &Generator{
		trains: cfg.Data.NumTrains,
		seed:   cfg.Data.Seed,
		start:  cfg.Data.StartTime,
		assemble: network.AssembleOptions{
			CoordStationsCSV: cfg.Data.CoordStationsCSV,
			StationsCSV:      cfg.Data.StationsCSV,
			SectionsCSV:      cfg.Data.SectionsCSV,
			KNearest:         cfg.Data.KNearest,
			AvgSpeedKmph:     cfg.Data.AvgSpeedKmph,
		},
		outDir: cfg.Data.Dir,
		stats:  &GenerationStats{},
	}

	if *scenarioPath != "" {
		if err := gen.applyScenario(*scenarioPath); err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}
	}

	// Explicit flags override both the config and the scenario file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trains":
			gen.trains = *trains
		case "seed":
			gen.seed = *seed
		case "start":
			gen.start = *start
		case "geo":
			gen.assemble.CoordStationsCSV = *geoCSV
		case "stations":
			gen.assemble.StationsCSV = *stationsCSV
		case "sections":
			gen.assemble.SectionsCSV = *sectionsCSV
		case "k":
			gen.assemble.KNearest = *kNearest
		case "speed":
			gen.assemble.AvgSpeedKmph = *speed
		case "out":
			gen.outDir = *outDir
		}
	})

	if gen.trains <= 0 {
		fmt.Fprintf(os.Stderr, "Error: train count must be positive (got %d)\n", gen.trains)
		flag.Usage()
		os.Exit(1)
	}

	if err := gen.Run(); err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	gen.PrintResults()
}

// applyScenario overlays the YAML scenario file onto the defaults.
// Zero values mean the field was omitted and keep their default.
func (g *Generator) applyScenario(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}

	var sc ScenarioFile
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if sc.Trains > 0 {
		g.trains = sc.Trains
	}
	if sc.Seed != 0 {
		g.seed = sc.Seed
	}
	if sc.Start != "" {
		g.start = sc.Start
	}
	if sc.Network.GeoStationsCSV != "" {
		g.assemble.CoordStationsCSV = sc.Network.GeoStationsCSV
	}
	if sc.Network.StationsCSV != "" {
		g.assemble.StationsCSV = sc.Network.StationsCSV
	}
	if sc.Network.SectionsCSV != "" {
		g.assemble.SectionsCSV = sc.Network.SectionsCSV
	}
	if sc.Network.KNearest > 0 {
		g.assemble.KNearest = sc.Network.KNearest
	}
	if sc.Network.AvgSpeedKmph > 0 {
		g.assemble.AvgSpeedKmph = sc.Network.AvgSpeedKmph
	}
	if sc.OutDir != "" {
		g.outDir = sc.OutDir
	}
	return nil
}

// Run assembles the network, generates the schedule, and writes the
// three CSV artifacts to the output directory.
func (g *Generator) Run() error {
	started := time.Now()

	log.Printf("Assembling network: geo=%s stations=%s sections=%s k=%d",
		g.assemble.CoordStationsCSV, g.assemble.StationsCSV, g.assemble.SectionsCSV, g.assemble.KNearest)

	stations, sections, err := network.Assemble(g.assemble)
	if err != nil {
		return fmt.Errorf("assembling network: %w", err)
	}

	g.stats.Stations = len(stations)
	for i := range sections {
		if sections[i].LegType == types.LegTypeInferred {
			g.stats.InferredSections++
		} else {
			g.stats.RealSections++
		}
	}

	log.Printf("Generating schedule: trains=%d seed=%d start=%s", g.trains, g.seed, g.start)

	schedule, err := timetable.Generate(stations, sections, timetable.GeneratorOptions{
		NumTrains: g.trains,
		StartTime: g.start,
		Seed:      g.seed,
	})
	if err != nil {
		return fmt.Errorf("generating schedule: %w", err)
	}

	g.stats.Trains = countTrains(schedule)
	g.stats.Stops = len(schedule)

	if err := os.MkdirAll(g.outDir, outDirPermission); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	stationsPath := filepath.Join(g.outDir, "master_stations.csv")
	if err := network.WriteStations(stationsPath, stations); err != nil {
		return fmt.Errorf("writing stations: %w", err)
	}
	g.stats.Files = append(g.stats.Files, stationsPath)

	sectionsPath := filepath.Join(g.outDir, "augmented_sections.csv")
	if err := network.WriteSections(sectionsPath, sections); err != nil {
		return fmt.Errorf("writing sections: %w", err)
	}
	g.stats.Files = append(g.stats.Files, sectionsPath)

	schedulePath := filepath.Join(g.outDir, "train_schedule.csv")
	if err := timetable.WriteSchedule(schedulePath, schedule); err != nil {
		return fmt.Errorf("writing schedule: %w", err)
	}
	g.stats.Files = append(g.stats.Files, schedulePath)

	g.stats.Duration = time.Since(started)
	return nil
}

// PrintResults prints the final generation summary
func (g *Generator) PrintResults() {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("GENERATION RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Stations: %d\n", g.stats.Stations)
	fmt.Printf("Sections: %d real, %d inferred\n", g.stats.RealSections, g.stats.InferredSections)
	fmt.Printf("Trains: %d\n", g.stats.Trains)
	fmt.Printf("Stops: %d\n", g.stats.Stops)
	fmt.Printf("Duration: %v\n", g.stats.Duration)
	fmt.Println("\nFiles written:")
	for _, f := range g.stats.Files {
		fmt.Printf("  %s\n", f)
	}

	if g.stats.Trains == 0 {
		fmt.Println("\nWARNING: no trains were generated. The network may have no routes long enough.")
	}
	fmt.Println(strings.Repeat("=", 60))
}

// countTrains counts distinct train ids in the schedule
func countTrains(schedule []types.TrainStop) int {
	seen := make(map[string]struct{}, len(schedule))
	for i := range schedule {
		seen[schedule[i].TrainID] = struct{}{}
	}
	return len(seen)
}
