package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmptySeries is returned when a weather series has no rows
	ErrEmptySeries = errors.New("weather series is empty")
	// ErrMalformedSeries is returned when a weather series breaks its invariants
	ErrMalformedSeries = errors.New("weather series is malformed")
)

// Location is the forecast site
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Altitude  float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"` // meters above sea level
	Timezone  string  `json:"timezone,omitempty" yaml:"timezone,omitempty"` // IANA zone name
}

// TimeLocation resolves the site's timezone, defaulting to UTC
func (l Location) TimeLocation() (*time.Location, error) {
	if l.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(l.Timezone)
}

// ForecastWindow is the half-open interval [Start, End) a forecast covers
type ForecastWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewForecastWindow starts at local midnight of now's date in tz and spans
// daysAhead days
func NewForecastWindow(now time.Time, tz *time.Location, daysAhead int) ForecastWindow {
	local := now.In(tz)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	return ForecastWindow{
		Start: start,
		End:   start.AddDate(0, 0, daysAhead),
	}
}

// Contains reports whether t falls inside the window
func (w ForecastWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration is the window length
func (w ForecastWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// SurfaceOrientation describes the array plane and the ground in front of it
type SurfaceOrientation struct {
	Tilt    float64 `json:"tilt" yaml:"tilt"`       // degrees from horizontal
	Azimuth float64 `json:"azimuth" yaml:"azimuth"` // degrees, 0=N 90=E 180=S 270=W
	Albedo  float64 `json:"albedo" yaml:"albedo"`   // ground reflectance, 0-1
}

// WeatherSeries is the NWP input. Its Index is the canonical timestamp index
// every later stage is aligned with.
type WeatherSeries struct {
	Index     []time.Time `json:"index"`
	DNI       []float64   `json:"dni"`
	DHI       []float64   `json:"dhi"`
	GHI       []float64   `json:"ghi"`
	TempAir   []float64   `json:"temp_air"`
	WindSpeed []float64   `json:"wind_speed"`
}

// Len returns the number of rows
func (w WeatherSeries) Len() int {
	return len(w.Index)
}

// Validate checks that the series is non-empty, rectangular, strictly
// increasing in time, finite, and has non-negative irradiance
func (w WeatherSeries) Validate() error {
	n := len(w.Index)
	if n == 0 {
		return ErrEmptySeries
	}
	if err := w.checkShape(); err != nil {
		return err
	}

	for _, c := range w.columns() {
		for i, v := range c.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: column %s is not finite at %s", ErrMalformedSeries, c.name, w.Index[i].Format(time.RFC3339))
			}
			if c.nonNegative && v < 0 {
				return fmt.Errorf("%w: column %s is negative (%.3f) at %s", ErrMalformedSeries, c.name, v, w.Index[i].Format(time.RFC3339))
			}
		}
	}

	for i := 1; i < n; i++ {
		if !w.Index[i].After(w.Index[i-1]) {
			return fmt.Errorf("%w: index is not strictly increasing at row %d", ErrMalformedSeries, i)
		}
	}

	return nil
}

type seriesColumn struct {
	name        string
	values      []float64
	nonNegative bool
}

func (w WeatherSeries) columns() []seriesColumn {
	return []seriesColumn{
		{"dni", w.DNI, true},
		{"dhi", w.DHI, true},
		{"ghi", w.GHI, true},
		{"temp_air", w.TempAir, false},
		{"wind_speed", w.WindSpeed, false},
	}
}

// checkShape fails unless every column has one value per index row
func (w WeatherSeries) checkShape() error {
	n := len(w.Index)
	for _, c := range w.columns() {
		if len(c.values) != n {
			return fmt.Errorf("%w: column %s has %d rows, index has %d", ErrMalformedSeries, c.name, len(c.values), n)
		}
	}
	return nil
}

// Slice returns the rows whose timestamps fall inside the window. The
// returned series shares no backing arrays with w. A series whose columns
// do not match its index is rejected with ErrMalformedSeries.
func (w WeatherSeries) Slice(window ForecastWindow) (WeatherSeries, error) {
	if err := w.checkShape(); err != nil {
		return WeatherSeries{}, err
	}

	var out WeatherSeries
	for i, ts := range w.Index {
		if !window.Contains(ts) {
			continue
		}
		out.Index = append(out.Index, ts)
		out.DNI = append(out.DNI, w.DNI[i])
		out.DHI = append(out.DHI, w.DHI[i])
		out.GHI = append(out.GHI, w.GHI[i])
		out.TempAir = append(out.TempAir, w.TempAir[i])
		out.WindSpeed = append(out.WindSpeed, w.WindSpeed[i])
	}
	return out, nil
}

// SolarPosition holds the sun's position for every index row (degrees)
type SolarPosition struct {
	Zenith            []float64 `json:"zenith"`
	ApparentZenith    []float64 `json:"apparent_zenith"`
	ApparentElevation []float64 `json:"apparent_elevation"`
	Azimuth           []float64 `json:"azimuth"`
	EquationOfTime    []float64 `json:"equation_of_time"`
}

// POAIrradiance is the plane-of-array irradiance breakdown (W/m²)
type POAIrradiance struct {
	Global        []float64 `json:"poa_global"`
	Direct        []float64 `json:"poa_direct"`
	Diffuse       []float64 `json:"poa_diffuse"`
	SkyDiffuse    []float64 `json:"poa_sky_diffuse"`
	GroundDiffuse []float64 `json:"poa_ground_diffuse"`
}

// CellTemperature is the PV cell temperature (°C) for every index row
type CellTemperature []float64

// DCOutput is the module operating point for every index row
type DCOutput struct {
	Isc []float64 `json:"i_sc"`
	Imp []float64 `json:"i_mp"`
	Voc []float64 `json:"v_oc"`
	Vmp []float64 `json:"v_mp"`
	Pmp []float64 `json:"p_mp"`
	Ix  []float64 `json:"i_x"`
	Ixx []float64 `json:"i_xx"`
}

// ACOutput is the inverter output (W) for every index row
type ACOutput struct {
	Power   []float64 `json:"p_ac"`
	Clipped []bool    `json:"clipped"`
}

// Clone returns a deep copy of the series
func (w WeatherSeries) Clone() WeatherSeries {
	return WeatherSeries{
		Index:     append([]time.Time(nil), w.Index...),
		DNI:       append([]float64(nil), w.DNI...),
		DHI:       append([]float64(nil), w.DHI...),
		GHI:       append([]float64(nil), w.GHI...),
		TempAir:   append([]float64(nil), w.TempAir...),
		WindSpeed: append([]float64(nil), w.WindSpeed...),
	}
}
