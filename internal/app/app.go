package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/cropyield/internal/config"
	"github.com/chrissnell/cropyield/internal/controllers/restserver"
	"github.com/chrissnell/cropyield/internal/storage/results"
)

// App serves stored pipeline runs until it is told to stop
type App struct {
	cfg    config.Config
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg config.Config, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite-path is required")
	}
	store, err := results.Open(a.cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()
	a.logger.Infof("serving runs from %s", store.Path())

	rc, err := restserver.NewController(ctx, &wg, store, a.cfg.Server, a.logger)
	if err != nil {
		return err
	}
	if err := rc.StartController(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")
	return nil
}
