package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chrissnell/pvforecast/internal/equipment"
	"github.com/chrissnell/pvforecast/internal/types"
	"github.com/chrissnell/pvforecast/internal/weather"
	"github.com/chrissnell/pvforecast/pkg/config"
	"github.com/chrissnell/pvforecast/pkg/irradiance"
	"github.com/chrissnell/pvforecast/pkg/temperature"
	"github.com/hashicorp/go-multierror"
)

// Bounds on the forecast horizon in days
const (
	MinDaysAhead = 1
	MaxDaysAhead = 21
)

// Request is a validated-shape forecast request
type Request struct {
	Location  types.Location           `json:"location"`
	DaysAhead int                      `json:"days_ahead"`
	Surface   types.SurfaceOrientation `json:"surface"`
	Module    equipment.Key            `json:"module"`
	Inverter  equipment.Key            `json:"inverter"`
	Model     weather.Model            `json:"model"`
	Mounting  string                   `json:"mounting,omitempty"`
}

// Inputs is the raw request as received from the CLI or HTTP layer
type Inputs struct {
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	Altitude             float64 `json:"altitude"`
	Timezone             string  `json:"timezone"`
	SurfaceTilt          float64 `json:"surface_tilt"`
	SurfaceAzimuth       float64 `json:"surface_azimuth"`
	Albedo               float64 `json:"albedo"`
	Surface              string  `json:"surface,omitempty"`
	ModuleManufacturer   string  `json:"module_manufacturer"`
	ModuleModel          string  `json:"module_model"`
	InverterManufacturer string  `json:"inverter_manufacturer"`
	InverterModel        string  `json:"inverter_model"`
	ForecastModel        string  `json:"forecast_model"`
	DaysAhead            int     `json:"days_ahead"`
	Mounting             string  `json:"mounting,omitempty"`
}

// RequestFromInputs resolves the raw request shape into a Request. Every
// problem found is reported in a single input error.
func RequestFromInputs(in Inputs) (Request, error) {
	var errs *multierror.Error
	var params []string

	model, err := weather.ParseModel(in.ForecastModel)
	if err != nil {
		errs = multierror.Append(errs, err)
		params = append(params, "forecast_model")
	}

	albedo := in.Albedo
	if in.Surface != "" {
		albedo, err = irradiance.SurfaceAlbedo(in.Surface)
		if err != nil {
			errs = multierror.Append(errs, err)
			params = append(params, "surface")
		}
	}

	if errs != nil {
		return Request{}, stageError(StageValidate, strings.Join(params, ","), ErrInput, errs.ErrorOrNil())
	}

	return Request{
		Location: types.Location{
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Altitude:  in.Altitude,
			Timezone:  in.Timezone,
		},
		DaysAhead: in.DaysAhead,
		Surface: types.SurfaceOrientation{
			Tilt:    in.SurfaceTilt,
			Azimuth: in.SurfaceAzimuth,
			Albedo:  albedo,
		},
		Module:   equipment.NewKey(in.ModuleManufacturer, in.ModuleModel),
		Inverter: equipment.NewKey(in.InverterManufacturer, in.InverterModel),
		Model:    model,
		Mounting: in.Mounting,
	}, nil
}

// InputsFromSite fills the raw request shape from the configured site
func InputsFromSite(site config.SiteData) Inputs {
	return Inputs{
		Latitude:             site.Latitude,
		Longitude:            site.Longitude,
		Altitude:             site.Altitude,
		Timezone:             site.Timezone,
		SurfaceTilt:          site.Tilt,
		SurfaceAzimuth:       site.Azimuth,
		Albedo:               site.Albedo,
		Surface:              site.Surface,
		ModuleManufacturer:   site.ModuleLibrary,
		ModuleModel:          site.Module,
		InverterManufacturer: site.InverterLibrary,
		InverterModel:        site.Inverter,
		ForecastModel:        site.Model,
		DaysAhead:            site.DaysAhead,
		Mounting:             site.Mounting,
	}
}

type violations struct {
	errs   *multierror.Error
	params []string
}

func (v *violations) add(param, format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: "+format, append([]any{param}, args...)...))
	v.params = append(v.params, param)
}

func (v *violations) err() error {
	if v.errs == nil {
		return nil
	}
	return stageError(StageValidate, strings.Join(v.params, ","), ErrInput, v.errs.ErrorOrNil())
}

func inRange(x, lo, hi float64) bool {
	return !math.IsNaN(x) && x >= lo && x <= hi
}

// Validate checks every request parameter and reports all violations in one
// input error
func (r Request) Validate() error {
	var v violations

	if !inRange(r.Location.Latitude, -90, 90) {
		v.add("latitude", "%v outside [-90, 90]", r.Location.Latitude)
	}
	if !inRange(r.Location.Longitude, -180, 180) {
		v.add("longitude", "%v outside [-180, 180]", r.Location.Longitude)
	}
	if math.IsNaN(r.Location.Altitude) || math.IsInf(r.Location.Altitude, 0) {
		v.add("altitude", "must be finite")
	}
	if _, err := r.Location.TimeLocation(); err != nil {
		v.add("timezone", "%v", err)
	}
	if !inRange(r.Surface.Tilt, 0, 90) {
		v.add("surface_tilt", "%v outside [0, 90]", r.Surface.Tilt)
	}
	if !inRange(r.Surface.Azimuth, 0, 360) || r.Surface.Azimuth == 360 {
		v.add("surface_azimuth", "%v outside [0, 360)", r.Surface.Azimuth)
	}
	if !inRange(r.Surface.Albedo, 0, 1) {
		v.add("albedo", "%v outside [0, 1]", r.Surface.Albedo)
	}
	if r.DaysAhead < MinDaysAhead || r.DaysAhead > MaxDaysAhead {
		v.add("days_ahead", "%d outside [%d, %d]", r.DaysAhead, MinDaysAhead, MaxDaysAhead)
	}
	if _, err := weather.ParseModel(string(r.Model)); err != nil {
		v.errs = multierror.Append(v.errs, err)
		v.params = append(v.params, "forecast_model")
	}
	if r.Module.Name == "" || r.Module.Library == "" {
		v.add("module", "library and name are required")
	}
	if r.Inverter.Name == "" || r.Inverter.Library == "" {
		v.add("inverter", "library and name are required")
	}
	if _, err := temperature.Lookup(r.Mounting); err != nil {
		v.errs = multierror.Append(v.errs, fmt.Errorf("mounting: %w", err))
		v.params = append(v.params, "mounting")
	}

	return v.err()
}

// Window derives the forecast window for a request made at now. The request
// must already be valid.
func (r Request) Window(now time.Time) (types.ForecastWindow, error) {
	tz, err := r.Location.TimeLocation()
	if err != nil {
		return types.ForecastWindow{}, stageError(StageValidate, "timezone", ErrInput, err)
	}
	w := types.NewForecastWindow(now, tz, r.DaysAhead)
	if !w.End.After(w.Start) {
		return types.ForecastWindow{}, stageError(StageValidate, "window", ErrInput,
			fmt.Errorf("window end %s is not after start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339)))
	}
	return w, nil
}
