package weather

import (
	"context"
	"errors"
	"time"

	"github.com/chrissnell/pvforecast/internal/types"
	"go.uber.org/zap"
)

// RetryPolicy decides which failures are retried and how long to wait
// between attempts
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ShouldRetry reports whether err is a temporary upstream failure
func (p RetryPolicy) ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Temporary()
	}
	return false
}

// Backoff returns the wait after the given attempt (starting from 1). The
// interval doubles every attempt up to MaxInterval.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialInterval
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxInterval > 0 && d >= p.MaxInterval {
			return p.MaxInterval
		}
	}
	return d
}

// Retrying wraps a Source and repeats temporary failures
type Retrying struct {
	source Source
	policy RetryPolicy
	logger *zap.SugaredLogger
}

// NewRetrying creates a retrying source
func NewRetrying(source Source, policy RetryPolicy, logger *zap.SugaredLogger) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Retrying{source: source, policy: policy, logger: logger}
}

// FetchWeather calls the wrapped source until it succeeds, the error is not
// retryable, attempts run out, or ctx is done
func (r *Retrying) FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		var series types.WeatherSeries
		series, err = r.source.FetchWeather(ctx, loc, window)
		if err == nil {
			return series, nil
		}
		if ctx.Err() != nil || !r.policy.ShouldRetry(err) || attempt == r.policy.MaxAttempts {
			break
		}

		wait := r.policy.Backoff(attempt)
		r.logger.Warnw("weather fetch failed, retrying", "source", r.source.Name(), "attempt", attempt, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return types.WeatherSeries{}, ctx.Err()
		case <-timer.C:
		}
	}
	return types.WeatherSeries{}, err
}

func (r *Retrying) Name() string {
	return r.source.Name()
}

func (r *Retrying) MaxHorizon() time.Duration {
	return r.source.MaxHorizon()
}

var _ Source = (*Retrying)(nil)
