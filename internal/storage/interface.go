// Package storage defines the backends a finished forecast is written to.
package storage

import (
	"context"

	"github.com/chrissnell/pvforecast/internal/forecast"
)

// Backend is a destination for completed forecasts
type Backend interface {
	Name() string
	StoreForecast(ctx context.Context, res *forecast.Result) error
}

// HealthChecker is implemented by backends that can probe their own
// connectivity between writes
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
