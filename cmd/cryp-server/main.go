// Command cryp-server serves stored CrYP runs over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/chrissnell/cropyield/internal/app"
	"github.com/chrissnell/cropyield/internal/config"
	"github.com/chrissnell/cropyield/internal/log"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration (storage and server sections)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cryp-server %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.NewConfig(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application := app.New(cfg, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
