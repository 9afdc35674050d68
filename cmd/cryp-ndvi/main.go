// Command cryp-ndvi smooths the raw vegetation of an input bundle into the
// daily season series and writes the bundle back with it filled in.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/cropyield/internal/bundle"
	"github.com/chrissnell/cropyield/internal/config"
	"github.com/chrissnell/cropyield/internal/log"
	"github.com/chrissnell/cropyield/internal/pipeline"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML run configuration (crop calendar and moving window)")
	in := flag.String("bundle", "season.msgpack", "Input bundle with raw vegetation")
	out := flag.String("out", "", "Output bundle path (defaults to overwriting -bundle)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *out == "" {
		*out = *in
	}

	cfg, err := config.NewConfig(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration. Did you pass the -config flag? Run with -h for help: %v", err)
	}
	inputs, err := bundle.Load(*in)
	if err != nil {
		log.Fatalf("Failed to load input bundle %s: %v", *in, err)
	}
	if inputs.Vegetation.Len() == 0 {
		log.Fatalf("Bundle %s has no raw vegetation to smooth", *in)
	}

	smoothed, err := pipeline.NewRunner(log.GetSugaredLogger()).SmoothVegetation(cfg, inputs)
	if err != nil {
		log.Fatalf("Failed to smooth vegetation: %v", err)
	}
	if err := bundle.Save(*out, smoothed); err != nil {
		log.Fatalf("Failed to write bundle: %v", err)
	}
	log.Infof("wrote %d daily vegetation frames to %s", smoothed.DailyVegetation.Len(), *out)
}
