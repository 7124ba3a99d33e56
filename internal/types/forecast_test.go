package types

import (
	"errors"
	"math"
	"testing"
	"time"
)

func hourlySeries(start time.Time, n int) WeatherSeries {
	w := WeatherSeries{}
	for i := 0; i < n; i++ {
		w.Index = append(w.Index, start.Add(time.Duration(i)*time.Hour))
		w.DNI = append(w.DNI, 100)
		w.DHI = append(w.DHI, 50)
		w.GHI = append(w.GHI, 120)
		w.TempAir = append(w.TempAir, -3)
		w.WindSpeed = append(w.WindSpeed, 2)
	}
	return w
}

func TestWeatherSeriesValidate(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(w *WeatherSeries)
		wantErr error
	}{
		{"valid", func(w *WeatherSeries) {}, nil},
		{"empty", func(w *WeatherSeries) { *w = WeatherSeries{} }, ErrEmptySeries},
		{"short column", func(w *WeatherSeries) { w.GHI = w.GHI[:2] }, ErrMalformedSeries},
		{"nan", func(w *WeatherSeries) { w.TempAir[1] = math.NaN() }, ErrMalformedSeries},
		{"negative irradiance", func(w *WeatherSeries) { w.DHI[2] = -1 }, ErrMalformedSeries},
		{"duplicate timestamp", func(w *WeatherSeries) { w.Index[2] = w.Index[1] }, ErrMalformedSeries},
		{"negative temperature is fine", func(w *WeatherSeries) { w.TempAir[0] = -40 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hourlySeries(start, 4)
			tt.mutate(&w)
			err := w.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestForecastWindow(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2025, 7, 10, 3, 30, 0, 0, time.UTC) // 21:30 on July 9 in Denver
	w := NewForecastWindow(now, denver, 2)

	if got := w.Start.In(denver); got.Day() != 9 || got.Hour() != 0 {
		t.Errorf("window start=%v, expected local midnight on July 9", got)
	}
	if w.Duration() != 48*time.Hour {
		t.Errorf("window duration=%v, expected 48h", w.Duration())
	}
	if !w.Contains(w.Start) || w.Contains(w.End) {
		t.Error("window must be half-open [Start, End)")
	}
}

func TestWeatherSeriesSlice(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	w := hourlySeries(start, 48)
	window := ForecastWindow{Start: start.Add(6 * time.Hour), End: start.Add(30 * time.Hour)}

	got, err := w.Slice(window)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 24 {
		t.Fatalf("sliced rows=%d, expected 24", got.Len())
	}
	if !got.Index[0].Equal(window.Start) {
		t.Errorf("first row=%v, expected %v", got.Index[0], window.Start)
	}
	got.DNI[0] = -1
	if w.DNI[6] != 100 {
		t.Error("slice must not alias the source series")
	}
}

func TestWeatherSeriesSliceRagged(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	w := hourlySeries(start, 2)
	w.DNI = w.DNI[:1]
	w.WindSpeed = w.WindSpeed[:1]

	_, err := w.Slice(ForecastWindow{Start: start, End: start.Add(24 * time.Hour)})
	if !errors.Is(err, ErrMalformedSeries) {
		t.Fatalf("Slice() error=%v, expected ErrMalformedSeries", err)
	}
}
