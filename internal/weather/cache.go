package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/pvforecast/internal/types"
	"go.uber.org/zap"
)

// Cached wraps a Source and keeps successful results for a fixed duration
type Cached struct {
	source        Source
	cache         map[string]cacheEntry
	mutex         sync.RWMutex
	cacheDuration time.Duration
	hits          int
	misses        int
	now           func() time.Time
	logger        *zap.SugaredLogger
}

type cacheEntry struct {
	series    types.WeatherSeries
	timestamp time.Time
}

// NewCached creates a cached wrapper around a source
func NewCached(source Source, cacheDuration time.Duration, logger *zap.SugaredLogger) *Cached {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cached{
		source:        source,
		cache:         make(map[string]cacheEntry),
		cacheDuration: cacheDuration,
		now:           time.Now,
		logger:        logger,
	}
}

func (c *Cached) Name() string {
	return c.source.Name() + " [Cached]"
}

func (c *Cached) MaxHorizon() time.Duration {
	return c.source.MaxHorizon()
}

// FetchWeather serves the series from cache when a fresh entry exists.
// Callers always receive their own copy.
func (c *Cached) FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	key := fmt.Sprintf("%.5f:%.5f:%.1f:%d:%d", loc.Latitude, loc.Longitude, loc.Altitude,
		window.Start.Unix(), window.End.Unix())

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if found && c.now().Sub(entry.timestamp) < c.cacheDuration {
		c.mutex.Lock()
		c.hits++
		c.mutex.Unlock()
		c.logger.Debugw("weather cache hit", "source", c.source.Name(), "key", key)
		return entry.series.Clone(), nil
	}

	c.mutex.Lock()
	c.misses++
	c.mutex.Unlock()

	series, err := c.source.FetchWeather(ctx, loc, window)
	if err != nil {
		return types.WeatherSeries{}, err
	}

	c.mutex.Lock()
	now := c.now()
	c.evictExpired(now)
	c.cache[key] = cacheEntry{series: series.Clone(), timestamp: now}
	c.mutex.Unlock()

	return series, nil
}

// evictExpired drops stale entries. The caller must hold the write lock.
func (c *Cached) evictExpired(now time.Time) {
	for key, entry := range c.cache {
		if now.Sub(entry.timestamp) >= c.cacheDuration {
			delete(c.cache, key)
		}
	}
}

// CacheStats returns statistics about cache hits and misses
func (c *Cached) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.hits, c.misses
}

var _ Source = (*Cached)(nil)
