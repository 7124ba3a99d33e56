package restserver

import (
	"encoding/json"
	"time"

	"github.com/chrissnell/pvforecast/internal/forecast"
	"github.com/chrissnell/pvforecast/internal/types"
)

// ForecastResponse is the /forecast body
type ForecastResponse struct {
	Request forecast.Request     `json:"request"`
	Window  types.ForecastWindow `json:"window"`
	Source  string               `json:"source"`
	Summary forecast.Summary     `json:"summary"`
	Points  []*ForecastPoint     `json:"points,omitempty"`
	RunID   string               `json:"run_id,omitempty"`
}

// ForecastPoint is one timestep for JSON and MessagePack output
type ForecastPoint struct {
	Timestamp int64   `json:"ts"` // unix milliseconds
	GHI       float64 `json:"ghi"`
	DNI       float64 `json:"dni"`
	DHI       float64 `json:"dhi"`
	TempAir   float64 `json:"temp_air"`
	WindSpeed float64 `json:"wind_speed"`
	POAGlobal float64 `json:"poa_global"`
	TempCell  float64 `json:"temp_cell"`
	PDC       float64 `json:"p_dc"`
	PAC       float64 `json:"p_ac"`
	Clipped   bool    `json:"clipped,omitempty"`
}

// ModelResponse describes one forecast model the server can query
type ModelResponse struct {
	Name       string  `json:"name"`
	Source     string  `json:"source"`
	MaxHorizon float64 `json:"max_horizon_hours"`
}

// HealthResponse is the /healthz body
type HealthResponse struct {
	Status  string                   `json:"status"`
	Storage map[string]StorageHealth `json:"storage,omitempty"`
}

// StorageHealth is the last known state of one storage backend
type StorageHealth struct {
	Status    string    `json:"status"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
}

// RunResponse is a stored forecast run
type RunResponse struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	Model       string           `json:"model"`
	Source      string           `json:"source"`
	Module      string           `json:"module"`
	Inverter    string           `json:"inverter"`
	WindowStart time.Time        `json:"window_start"`
	WindowEnd   time.Time        `json:"window_end"`
	DCEnergy    float64          `json:"dc_energy_wh"`
	ACEnergy    float64          `json:"ac_energy_wh"`
	PeakAC      float64          `json:"peak_ac_w"`
	Summary     json.RawMessage  `json:"summary,omitempty"`
	Points      []*ForecastPoint `json:"points,omitempty"`
}

// ErrorResponse is written for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}
