// Package managers assembles the configured equipment databases and storage
// backends.
package managers

import (
	"context"
	"fmt"

	"github.com/chrissnell/pvforecast/internal/database"
	"github.com/chrissnell/pvforecast/internal/storage"
	"github.com/chrissnell/pvforecast/internal/storage/csvexport"
	"github.com/chrissnell/pvforecast/internal/storage/runstore"
	"github.com/chrissnell/pvforecast/pkg/config"
	"go.uber.org/zap"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	*storage.Manager
	// Runs is set when a TimescaleDB backend is configured
	Runs   *runstore.Store
	client *database.Client
}

// NewStorageManager creates a StorageManager populated with all configured
// backends. CSV export is always enabled.
func NewStorageManager(ctx context.Context, c config.StorageData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{}

	backends := []storage.Backend{csvexport.New(c.CSVDir, logger.With("backend", "csv"))}

	if c.TimescaleDB != nil && c.TimescaleDB.ConnectionString != "" {
		s.client = database.NewClient(c.TimescaleDB, logger)
		if err := s.client.Connect(); err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}

		s.Runs = runstore.New(s.client.DB, logger.With("backend", "timescaledb"))
		if err := s.Runs.Migrate(ctx, c.TimescaleDB.Hypertable); err != nil {
			s.client.Close()
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		backends = append(backends, s.Runs)
	}

	s.Manager = storage.NewManager(logger, backends...)
	return s, nil
}

// Close releases the database connection, if any
func (s *StorageManager) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
