// Package runstore persists forecast runs to PostgreSQL/TimescaleDB.
package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/pvforecast/internal/database"
	"github.com/chrissnell/pvforecast/internal/forecast"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no stored run matches
var ErrRunNotFound = errors.New("forecast run not found")

const batchSize = 500

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE`

const createHypertableSQL = `SELECT create_hypertable('forecast_points', 'time', if_not_exists => TRUE, migrate_data => TRUE)`

// Store saves and loads forecast runs
type Store struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
	newID  func() uuid.UUID
}

// New wraps an open gorm session
func New(db *gorm.DB, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, logger: logger, newID: uuid.New}
}

// Name implements storage.Backend
func (s *Store) Name() string {
	return "timescaledb"
}

// Migrate creates the run tables. With hypertable set the points table is
// converted to a TimescaleDB hypertable partitioned on time.
func (s *Store) Migrate(ctx context.Context, hypertable bool) error {
	db := s.db.WithContext(ctx)

	s.logger.Info("creating forecast tables...")
	if err := db.AutoMigrate(&database.ForecastRun{}, &database.ForecastPoint{}); err != nil {
		return fmt.Errorf("could not migrate forecast tables: %w", err)
	}

	if !hypertable {
		return nil
	}

	s.logger.Info("creating TimescaleDB extension...")
	if err := db.Exec(createExtensionSQL).Error; err != nil {
		return fmt.Errorf("could not create TimescaleDB extension: %w", err)
	}

	s.logger.Info("creating hypertable...")
	if err := db.Exec(createHypertableSQL).Error; err != nil {
		return fmt.Errorf("could not create hypertable: %w", err)
	}
	return nil
}

// StoreForecast implements storage.Backend
func (s *Store) StoreForecast(ctx context.Context, res *forecast.Result) error {
	_, err := s.Save(ctx, res)
	return err
}

// Save writes the run and its points in one transaction and returns the new
// run ID
func (s *Store) Save(ctx context.Context, res *forecast.Result) (uuid.UUID, error) {
	id := s.newID()
	run, err := runRecord(id, res)
	if err != nil {
		return uuid.Nil, err
	}
	points := pointRecords(id, res)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}
		if len(points) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(points, batchSize).Error; err != nil {
			return fmt.Errorf("could not store points: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Infow("stored forecast run", "run_id", id, "rows", len(points))
	return id, nil
}

// Get loads a run and its points
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*database.ForecastRun, []database.ForecastPoint, error) {
	var run database.ForecastRun
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, nil, fmt.Errorf("error querying database for run %s: %w", id, err)
	}

	points, err := s.points(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return &run, points, nil
}

// Latest loads the most recent run for a model
func (s *Store) Latest(ctx context.Context, model string) (*database.ForecastRun, error) {
	var run database.ForecastRun
	err := s.db.WithContext(ctx).Where("model = ?", model).Order("created_at desc").Limit(1).Find(&run).Error
	if err != nil {
		return nil, fmt.Errorf("error querying database for latest %s run: %w", model, err)
	}
	if run.ID == "" {
		return nil, fmt.Errorf("%w: no %s runs", ErrRunNotFound, model)
	}
	return &run, nil
}

// CheckHealth implements storage.HealthChecker
func (s *Store) CheckHealth(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (s *Store) points(ctx context.Context, runID string) ([]database.ForecastPoint, error) {
	var points []database.ForecastPoint
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("time").Find(&points).Error; err != nil {
		return nil, fmt.Errorf("error querying database for points of run %s: %w", runID, err)
	}
	return points, nil
}

func runRecord(id uuid.UUID, res *forecast.Result) (database.ForecastRun, error) {
	run := database.ForecastRun{
		ID:          id.String(),
		Latitude:    res.Request.Location.Latitude,
		Longitude:   res.Request.Location.Longitude,
		Altitude:    res.Request.Location.Altitude,
		Timezone:    res.Request.Location.Timezone,
		Model:       string(res.Request.Model),
		Source:      res.Source,
		Module:      res.Request.Module.String(),
		Inverter:    res.Request.Inverter.String(),
		WindowStart: res.Window.Start,
		WindowEnd:   res.Window.End,
		Rows:        len(res.Index),
		DCEnergy:    res.Summary.DCEnergy,
		ACEnergy:    res.Summary.ACEnergy,
		PeakAC:      res.Summary.PeakAC,
	}

	request, err := json.Marshal(res.Request)
	if err != nil {
		return database.ForecastRun{}, fmt.Errorf("could not encode request: %w", err)
	}
	if err := run.Request.Set(request); err != nil {
		return database.ForecastRun{}, err
	}

	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return database.ForecastRun{}, fmt.Errorf("could not encode summary: %w", err)
	}
	if err := run.Summary.Set(summary); err != nil {
		return database.ForecastRun{}, err
	}

	return run, nil
}

func pointRecords(id uuid.UUID, res *forecast.Result) []database.ForecastPoint {
	points := make([]database.ForecastPoint, len(res.Index))
	for i, ts := range res.Index {
		points[i] = database.ForecastPoint{
			RunID:     id.String(),
			Time:      ts,
			GHI:       res.Weather.GHI[i],
			DNI:       res.Weather.DNI[i],
			DHI:       res.Weather.DHI[i],
			TempAir:   res.Weather.TempAir[i],
			WindSpeed: res.Weather.WindSpeed[i],
			POAGlobal: res.POA.Global[i],
			TempCell:  res.CellTemperature[i],
			PDC:       res.DC.Pmp[i],
			PAC:       res.AC.Power[i],
			Clipped:   res.AC.Clipped[i],
		}
	}
	return points
}
