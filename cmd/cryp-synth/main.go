// Command cryp-synth writes a synthetic input bundle with a known phenology.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/cropyield/internal/bundle"
	"github.com/chrissnell/cropyield/internal/log"
	"github.com/chrissnell/cropyield/internal/pipeline"
	"github.com/chrissnell/cropyield/internal/synth"
	"github.com/chrissnell/cropyield/pkg/raster"
)

func main() {
	out := flag.String("out", "season.msgpack", "Output bundle path")
	rows := flag.Int("rows", 8, "Grid rows")
	cols := flag.Int("cols", 8, "Grid columns")
	domain := flag.String("domain", "synthetic", "Domain reference stored with the grid")
	year := flag.Int("year", 2023, "Season year (the season starts in April and lasts three months)")
	peakDay := flag.Int("peak-day", 45, "Day of the vegetation peak, counted from April 1")
	cadence := flag.Int("cadence", 5, "Revisit interval of the raw vegetation series, in days")
	cloudRate := flag.Float64("cloud-rate", 0.15, "Probability that a raw sample is cloud-depressed")
	history := flag.Int("history", 60, "Days of raw vegetation generated on each side of the season")
	seed := flag.Int64("seed", 1, "Random seed")
	daily := flag.Bool("daily", false, "Also include the noise-free daily vegetation series")
	flag.Parse()

	if err := log.Init(false); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	g, err := raster.NewGrid(*rows, *cols, *domain)
	if err != nil {
		log.Fatalf("Invalid grid: %v", err)
	}
	opts, err := synth.DefaultOptions(g, *year)
	if err != nil {
		log.Fatalf("Invalid season: %v", err)
	}
	opts.PeakDay = *peakDay
	opts.Cadence = *cadence
	opts.CloudRate = *cloudRate
	opts.History = *history
	opts.Seed = *seed

	s, err := synth.Generate(opts)
	if err != nil {
		log.Fatalf("Failed to generate season: %v", err)
	}

	in := pipeline.Inputs{Grid: g, Vegetation: s.Raw, Weather: s.Weather}
	if *daily {
		in.DailyVegetation = &s.Daily
	}
	if err := bundle.Save(*out, in); err != nil {
		log.Fatalf("Failed to write bundle: %v", err)
	}
	log.Infof("wrote %dx%d bundle with %d raw and %d daily vegetation frames to %s",
		g.Rows, g.Cols, s.Raw.Len(), s.Daily.Len(), *out)
}
