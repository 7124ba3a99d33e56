package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/pvforecast/internal/forecast"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Manager writes each forecast to every configured backend and tracks
// their health
type Manager struct {
	backends []Backend
	health   *HealthManager
	logger   *zap.SugaredLogger
}

// NewManager creates a manager over the given backends
func NewManager(logger *zap.SugaredLogger, backends ...Backend) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		backends: backends,
		health:   NewHealthManager(),
		logger:   logger,
	}
}

// Backends returns the configured backend names
func (m *Manager) Backends() []string {
	names := make([]string, len(m.backends))
	for i, b := range m.backends {
		names[i] = b.Name()
	}
	return names
}

// Health exposes the manager's health records
func (m *Manager) Health() *HealthManager {
	return m.health
}

// StoreForecast writes res to every backend. A failing backend does not stop
// the others; all failures are returned together.
func (m *Manager) StoreForecast(ctx context.Context, res *forecast.Result) error {
	var errs *multierror.Error
	for _, b := range m.backends {
		if err := b.StoreForecast(ctx, res); err != nil {
			m.logger.Errorw("storage backend failed", "backend", b.Name(), "error", err)
			m.health.UpdateHealth(b.Name(), NewHealth(StatusUnhealthy, "store failed", err))
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		m.health.UpdateHealth(b.Name(), NewHealth(StatusHealthy, fmt.Sprintf("stored %d rows", len(res.Index)), nil))
	}
	return errs.ErrorOrNil()
}

// StartHealthMonitor periodically probes every backend that implements
// HealthChecker until ctx is cancelled
func (m *Manager) StartHealthMonitor(ctx context.Context, interval time.Duration) {
	var checkers []Backend
	for _, b := range m.backends {
		if _, ok := b.(HealthChecker); ok {
			checkers = append(checkers, b)
		}
	}
	if len(checkers) == 0 {
		return
	}

	go func() {
		updateHealth := func() {
			for _, b := range checkers {
				if err := b.(HealthChecker).CheckHealth(ctx); err != nil {
					m.health.UpdateHealth(b.Name(), NewHealth(StatusUnhealthy, "health check failed", err))
					m.logger.Warnw("storage health check failed", "backend", b.Name(), "error", err)
					continue
				}
				m.health.UpdateHealth(b.Name(), NewHealth(StatusHealthy, "health check passed", nil))
				m.logger.Debugw("updated storage health", "backend", b.Name())
			}
		}

		updateHealth()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				updateHealth()
			case <-ctx.Done():
				m.logger.Info("stopping storage health monitor")
				return
			}
		}
	}()
}
