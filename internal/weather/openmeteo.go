package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chrissnell/pvforecast/internal/constants"
	"github.com/chrissnell/pvforecast/internal/types"
)

const openMeteoHourly = "temperature_2m,wind_speed_10m,shortwave_radiation,diffuse_radiation,direct_normal_irradiance"

// UpstreamError describes a failed request to a weather service. Status is
// zero for transport failures.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Temporary reports whether repeating the request may succeed
func (e *UpstreamError) Temporary() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// OpenMeteoSource fetches hourly forecasts from the Open-Meteo API for one
// NWP model
type OpenMeteoSource struct {
	baseURL    string
	info       ModelInfo
	httpClient *http.Client
}

// NewOpenMeteoSource creates a source for the model described by info
func NewOpenMeteoSource(baseURL string, info ModelInfo) *OpenMeteoSource {
	return &OpenMeteoSource{
		baseURL:    baseURL,
		info:       info,
		httpClient: &http.Client{},
	}
}

// Name returns the source name
func (s *OpenMeteoSource) Name() string {
	return "open-meteo/" + s.info.Upstream
}

// MaxHorizon is how far ahead the model forecasts
func (s *OpenMeteoSource) MaxHorizon() time.Duration {
	return s.info.MaxHorizon
}

type openMeteoResponse struct {
	Hourly struct {
		Time      []int64    `json:"time"`
		TempAir   []*float64 `json:"temperature_2m"`
		WindSpeed []*float64 `json:"wind_speed_10m"`
		GHI       []*float64 `json:"shortwave_radiation"`
		DHI       []*float64 `json:"diffuse_radiation"`
		DNI       []*float64 `json:"direct_normal_irradiance"`
	} `json:"hourly"`
}

// FetchWeather requests the hourly series covering window and trims it to
// the window
func (s *OpenMeteoSource) FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	params := url.Values{}
	params.Add("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Add("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	params.Add("hourly", openMeteoHourly)
	params.Add("models", s.info.Upstream)
	params.Add("timeformat", "unixtime")
	params.Add("wind_speed_unit", "ms")
	params.Add("timezone", "GMT")
	params.Add("start_date", window.Start.UTC().Format("2006-01-02"))
	params.Add("end_date", window.End.Add(-time.Nanosecond).UTC().Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return types.WeatherSeries{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.WeatherSeries{}, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.WeatherSeries{}, &UpstreamError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.WeatherSeries{}, &UpstreamError{Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var response openMeteoResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return types.WeatherSeries{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return response.series(window)
}

func (r openMeteoResponse) series(window types.ForecastWindow) (types.WeatherSeries, error) {
	h := r.Hourly
	n := len(h.Time)
	columns := []struct {
		name   string
		values []*float64
	}{
		{"temperature_2m", h.TempAir},
		{"wind_speed_10m", h.WindSpeed},
		{"shortwave_radiation", h.GHI},
		{"diffuse_radiation", h.DHI},
		{"direct_normal_irradiance", h.DNI},
	}
	for _, c := range columns {
		if len(c.values) != n {
			return types.WeatherSeries{}, fmt.Errorf("%w: %s has %d values for %d timestamps", ErrMalformed, c.name, len(c.values), n)
		}
	}

	var out types.WeatherSeries
	for i, unix := range h.Time {
		ts := time.Unix(unix, 0).UTC()
		if !window.Contains(ts) {
			continue
		}
		for _, c := range columns {
			if c.values[i] == nil {
				return types.WeatherSeries{}, fmt.Errorf("%w: %s is null at %s", ErrMalformed, c.name, ts.Format(time.RFC3339))
			}
		}
		out.Index = append(out.Index, ts)
		out.TempAir = append(out.TempAir, *h.TempAir[i])
		out.WindSpeed = append(out.WindSpeed, *h.WindSpeed[i])
		out.GHI = append(out.GHI, *h.GHI[i])
		out.DHI = append(out.DHI, *h.DHI[i])
		out.DNI = append(out.DNI, *h.DNI[i])
	}

	if out.Len() == 0 {
		return types.WeatherSeries{}, ErrEmptySeries
	}
	if err := out.Validate(); err != nil {
		return types.WeatherSeries{}, err
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
