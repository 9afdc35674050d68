// Command cryp runs one CrYP season from a configuration file and an input
// bundle and stores the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/chrissnell/cropyield/internal/bundle"
	"github.com/chrissnell/cropyield/internal/config"
	"github.com/chrissnell/cropyield/internal/log"
	"github.com/chrissnell/cropyield/internal/pipeline"
	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/internal/storage/results"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML run configuration")
	bundleFile := flag.String("bundle", "season.msgpack", "Path to the input bundle (see cryp-synth)")
	noStore := flag.Bool("no-store", false, "Do not persist the results even if storage.sqlite-path is set")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cryp %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.NewConfig(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration. Did you pass the -config flag? Run with -h for help: %v", err)
	}

	in, err := bundle.Load(*bundleFile)
	if err != nil {
		log.Fatalf("Failed to load input bundle %s: %v", *bundleFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.NewRunner(log.GetSugaredLogger()).Run(ctx, cfg, in)
	if err != nil {
		var cfgErr *season.ConfigurationError
		var alignErr *season.AlignmentError
		switch {
		case errors.As(err, &cfgErr):
			log.Fatalf("Configuration rejected: %v", cfgErr)
		case errors.As(err, &alignErr):
			log.Fatalf("Inputs do not cover the season: %v", alignErr)
		default:
			log.Fatalf("Pipeline failed: %v", err)
		}
	}

	s := res.Summary
	log.Infow("yield summary", "pixels", s.Pixels, "valid", s.Valid,
		"mean", s.Mean, "stddev", s.StdDev, "min", s.Min, "max", s.Max)

	if *noStore || cfg.Storage.SQLitePath == "" {
		return
	}
	store, err := results.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open result store: %v", err)
	}
	defer store.Close()

	run, err := store.SaveRun(ctx, res)
	if err != nil {
		log.Fatalf("Failed to store results: %v", err)
	}
	log.Infof("stored run %s with %d rasters in %s", run.ID, len(run.Rasters), store.Path())
}
