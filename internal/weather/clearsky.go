package weather

import (
	"context"
	"time"

	"github.com/chrissnell/pvforecast/internal/types"
	"github.com/chrissnell/pvforecast/pkg/config"
	"github.com/chrissnell/pvforecast/pkg/solar"
)

// ClearSkySource is an offline source that synthesises weather from the
// clear-sky model. Output depends only on its inputs.
type ClearSkySource struct {
	Interval    time.Duration
	TempAir     float64
	WindSpeed   float64
	CloudCover  float64 // percent
	CloudOffset float64
	Horizon     time.Duration
}

// NewClearSkySource creates a clear-sky source from configuration
func NewClearSkySource(cfg config.ClearSkyData) *ClearSkySource {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &ClearSkySource{
		Interval:    interval,
		TempAir:     cfg.AirTemperature(),
		WindSpeed:   cfg.Wind(),
		CloudCover:  cfg.CloudCover,
		CloudOffset: cfg.CloudOffset,
		Horizon:     16 * 24 * time.Hour,
	}
}

func (s *ClearSkySource) Name() string {
	return "clearsky"
}

func (s *ClearSkySource) MaxHorizon() time.Duration {
	return s.Horizon
}

// FetchWeather returns one row per interval starting at the window start
func (s *ClearSkySource) FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.WeatherSeries{}, err
	}

	var out types.WeatherSeries
	for ts := window.Start.UTC(); ts.Before(window.End); ts = ts.Add(s.Interval) {
		cs := solar.ClearSkyIrradiance(ts, loc.Latitude, loc.Longitude, loc.Altitude)
		if s.CloudCover > 0 {
			cs = cs.CloudAttenuated(s.CloudCover, s.CloudOffset)
		}
		out.Index = append(out.Index, ts)
		out.GHI = append(out.GHI, cs.GHI)
		out.DNI = append(out.DNI, cs.DNI)
		out.DHI = append(out.DHI, cs.DHI)
		out.TempAir = append(out.TempAir, s.TempAir)
		out.WindSpeed = append(out.WindSpeed, s.WindSpeed)
	}

	if out.Len() == 0 {
		return types.WeatherSeries{}, ErrEmptySeries
	}
	return out, nil
}

var _ Source = (*ClearSkySource)(nil)
