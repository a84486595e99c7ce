// console is the railwatch operator terminal: an interactive loop over
// one dispatch session, from loading the network and booking trains
// through detecting and adjudicating block conflicts.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"railwatch/internal/analysis"
	"railwatch/internal/config"
	"railwatch/internal/console"
	"railwatch/internal/logging"
	"railwatch/internal/session"
)

func main() {
	var (
		geoCSV      = flag.String("geo", "", "Coordinate stations CSV (overrides config)")
		stationsCSV = flag.String("stations", "", "Plain stations CSV (overrides config)")
		sectionsCSV = flag.String("sections", "", "Sections CSV (overrides config)")
		dataDir     = flag.String("data", "", "Directory for exported artifacts (overrides config)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *geoCSV != "" {
		cfg.Data.CoordStationsCSV = *geoCSV
	}
	if *stationsCSV != "" {
		cfg.Data.StationsCSV = *stationsCSV
	}
	if *sectionsCSV != "" {
		cfg.Data.SectionsCSV = *sectionsCSV
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}

	// Console output owns the terminal; keep log noise to warnings.
	logger, err := logging.Setup("warn", "text", cfg.Logging.File)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	var narrative *analysis.NarrativeClient
	if cfg.Analysis.Enabled() {
		narrative, err = analysis.NewNarrativeClient(cfg.Analysis.APIKey, cfg.Analysis.BaseURL)
		if err != nil {
			log.Fatalf("Failed to create narrative client: %v", err)
		}
	}

	manager := session.NewManager(nil)
	operator := console.New(cfg, manager.Default(), analysis.NewAnalyzer(narrative), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := operator.Run(ctx); err != nil {
		log.Fatalf("Console error: %v", err)
	}
}
