package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/pvforecast/internal/types"
	"golang.org/x/time/rate"
)

// RateLimited wraps a Source with a token-bucket limiter. Sources that talk
// to the same upstream should share one limiter.
type RateLimited struct {
	source  Source
	limiter *rate.Limiter
	name    string
}

// NewRateLimited creates a rate limited source
func NewRateLimited(source Source, limiter *rate.Limiter) *RateLimited {
	return &RateLimited{
		source:  source,
		limiter: limiter,
		name:    fmt.Sprintf("%s [Rate Limited]", source.Name()),
	}
}

// FetchWeather waits for the limiter, then forwards to the wrapped source
func (r *RateLimited) FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return types.WeatherSeries{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.source.FetchWeather(ctx, loc, window)
}

func (r *RateLimited) Name() string {
	return r.name
}

func (r *RateLimited) MaxHorizon() time.Duration {
	return r.source.MaxHorizon()
}

var _ Source = (*RateLimited)(nil)
