package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/pvforecast/internal/types"
	"github.com/chrissnell/pvforecast/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrMalformed is returned when upstream data cannot be turned into a
	// valid weather series
	ErrMalformed = types.ErrMalformedSeries
	// ErrUpstream is returned when the upstream service fails
	ErrUpstream = errors.New("weather upstream failure")
	// ErrEmptySeries is returned when no rows fall inside the window
	ErrEmptySeries = types.ErrEmptySeries
)

// Source produces a weather series for a location and window
type Source interface {
	FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error)
	Name() string
	MaxHorizon() time.Duration
}

// Provider maps every supported model to the source that serves it
type Provider struct {
	sources map[Model]Source
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewProvider builds the online provider: one Open-Meteo source per model,
// sharing a rate limiter and wrapped with retries and a TTL cache.
func NewProvider(cfg config.WeatherData, logger *zap.SugaredLogger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	policy := RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}

	sources := make(map[Model]Source, len(allModels))
	for _, m := range allModels {
		info := DefaultInfo(m)
		for name, override := range cfg.Models {
			parsed, err := ParseModel(name)
			if err != nil {
				return nil, fmt.Errorf("weather.models: %w", err)
			}
			if parsed != m {
				continue
			}
			if override.Upstream != "" {
				info.Upstream = override.Upstream
			}
			if override.MaxHorizon > 0 {
				info.MaxHorizon = override.MaxHorizon
			}
		}

		var src Source = NewOpenMeteoSource(cfg.Endpoint, info)
		src = NewRateLimited(src, limiter)
		src = NewRetrying(src, policy, logger)
		if cfg.CacheTTL > 0 {
			src = NewCached(src, cfg.CacheTTL, logger)
		}
		sources[m] = src
	}

	return &Provider{sources: sources, timeout: cfg.Timeout, logger: logger}, nil
}

// NewStaticProvider builds a provider from an explicit model table. Models
// missing from the table are rejected at lookup.
func NewStaticProvider(sources map[Model]Source, timeout time.Duration) *Provider {
	table := make(map[Model]Source, len(sources))
	for m, s := range sources {
		table[m] = s
	}
	return &Provider{sources: table, timeout: timeout, logger: zap.NewNop().Sugar()}
}

// NewClearSkyProvider serves every model from an offline clear-sky source
// that keeps the model's horizon
func NewClearSkyProvider(cfg config.ClearSkyData) *Provider {
	sources := make(map[Model]Source, len(allModels))
	for _, m := range allModels {
		cs := NewClearSkySource(cfg)
		cs.Horizon = DefaultInfo(m).MaxHorizon
		sources[m] = cs
	}
	return NewStaticProvider(sources, 0)
}

// Source returns the source serving m
func (p *Provider) Source(m Model) (Source, error) {
	src, ok := p.sources[m]
	if !ok {
		return nil, &UnknownModelError{Name: string(m)}
	}
	return src, nil
}

// Fetch retrieves the series for m under the provider's timeout and checks
// that the result is a valid, non-empty series inside the window
func (p *Provider) Fetch(ctx context.Context, m Model, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	src, err := p.Source(m)
	if err != nil {
		return types.WeatherSeries{}, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	series, err := src.FetchWeather(ctx, loc, window)
	if err != nil {
		return types.WeatherSeries{}, fmt.Errorf("%s: %w", src.Name(), err)
	}

	series, err = series.Slice(window)
	if err != nil {
		return types.WeatherSeries{}, fmt.Errorf("%s: %w", src.Name(), err)
	}
	if err := series.Validate(); err != nil {
		return types.WeatherSeries{}, fmt.Errorf("%s: %w", src.Name(), err)
	}

	p.logger.Debugw("fetched weather", "source", src.Name(), "rows", series.Len(), "elapsed", time.Since(start))
	return series, nil
}
