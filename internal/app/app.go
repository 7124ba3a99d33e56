// Package app wires configuration into a running forecaster.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/pvforecast/internal/controllers/restserver"
	"github.com/chrissnell/pvforecast/internal/forecast"
	"github.com/chrissnell/pvforecast/internal/log"
	"github.com/chrissnell/pvforecast/internal/managers"
	"github.com/chrissnell/pvforecast/internal/weather"
	"github.com/chrissnell/pvforecast/pkg/config"
	"go.uber.org/zap"
)

// healthInterval is how often storage backends are probed while serving
const healthInterval = time.Minute

// App represents the main application
type App struct {
	cfg     *config.ConfigData
	offline bool
	logger  *zap.SugaredLogger

	Forecaster *forecast.Forecaster
	Equipment  *managers.EquipmentManager
	Storage    *managers.StorageManager
}

// New creates a new application instance. Offline applications serve every
// model from the clear-sky source instead of Open-Meteo.
func New(cfg *config.ConfigData, offline bool, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:     cfg,
		offline: offline,
		logger:  logger,
	}
}

// Init opens the equipment databases, the weather provider and the storage
// backends
func (a *App) Init(ctx context.Context) error {
	var err error

	a.Equipment, err = managers.NewEquipmentManager(a.cfg.Equipment, log.Component("equipment"))
	if err != nil {
		return err
	}

	var provider *weather.Provider
	if a.offline {
		a.logger.Info("offline mode: serving every model from the clear-sky source")
		provider = weather.NewClearSkyProvider(a.cfg.Weather.ClearSky)
	} else {
		provider, err = weather.NewProvider(a.cfg.Weather, log.Component("weather"))
		if err != nil {
			a.Close()
			return fmt.Errorf("could not create weather provider: %w", err)
		}
	}

	a.Storage, err = managers.NewStorageManager(ctx, a.cfg.Storage, log.Component("storage"))
	if err != nil {
		a.Close()
		return err
	}

	a.Forecaster = &forecast.Forecaster{
		Weather:   provider,
		Equipment: a.Equipment.Database,
		Logger:    log.Component("forecast"),
	}
	return nil
}

// Forecast runs the pipeline once for in and writes the result to every
// storage backend
func (a *App) Forecast(ctx context.Context, in forecast.Inputs) (*forecast.Result, error) {
	req, err := forecast.RequestFromInputs(in)
	if err != nil {
		return nil, err
	}

	res, err := a.Forecaster.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := a.Storage.StoreForecast(ctx, res); err != nil {
		return res, fmt.Errorf("forecast computed but not fully stored: %w", err)
	}
	return res, nil
}

// Serve starts the REST server and blocks until shutdown
func (a *App) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := restserver.Options{
		Forecaster: a.Forecaster,
		Storage:    a.Storage.Manager,
	}
	if a.Storage.Runs != nil {
		opts.Runs = a.Storage.Runs
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.cfg, opts, log.Component("restserver"))
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	a.Storage.StartHealthMonitor(ctx, healthInterval)

	a.logger.Info("application started successfully")

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

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}

// Close releases the databases
func (a *App) Close() error {
	var err error
	if a.Storage != nil {
		err = a.Storage.Close()
	}
	if a.Equipment != nil {
		if cerr := a.Equipment.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
