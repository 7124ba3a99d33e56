// Package forecast runs the PV power forecast pipeline: weather ingestion,
// solar geometry, plane-of-array irradiance, cell temperature, and the DC and
// AC power models.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/pvforecast/internal/equipment"
	"github.com/chrissnell/pvforecast/internal/types"
	"github.com/chrissnell/pvforecast/internal/weather"
	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/irradiance"
	"github.com/chrissnell/pvforecast/pkg/pvsystem"
	"github.com/chrissnell/pvforecast/pkg/solar"
	"github.com/chrissnell/pvforecast/pkg/temperature"
	"go.uber.org/zap"
)

// Forecaster holds the pipeline's collaborators. It keeps no per-request
// state and is safe for concurrent use.
type Forecaster struct {
	Weather   *weather.Provider
	Equipment equipment.Database
	Now       func() time.Time
	Logger    *zap.SugaredLogger
}

// Result holds every series the pipeline produced, aligned on Index
type Result struct {
	Request         Request                   `json:"request"`
	Window          types.ForecastWindow      `json:"window"`
	Source          string                    `json:"source"`
	Index           []time.Time               `json:"index"`
	Weather         types.WeatherSeries       `json:"weather"`
	SolarPosition   types.SolarPosition       `json:"solar_position"`
	AOI             []float64                 `json:"aoi"`
	Airmass         []float64                 `json:"airmass"`
	POA             types.POAIrradiance       `json:"poa"`
	CellTemperature types.CellTemperature     `json:"cell_temperature"`
	DC              types.DCOutput            `json:"dc"`
	AC              types.ACOutput            `json:"ac"`
	Module          pvsystem.ModuleParameters `json:"module"`
	Inverter        inverter.Parameters       `json:"inverter"`
	Summary         Summary                   `json:"summary"`
}

func (f *Forecaster) logger() *zap.SugaredLogger {
	if f.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return f.Logger
}

func (f *Forecaster) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// Run executes the pipeline for one request
func (f *Forecaster) Run(ctx context.Context, req Request) (*Result, error) {
	log := f.logger().With("model", req.Model, "module", req.Module.Name, "inverter", req.Inverter.Name)
	started := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := f.now()
	window, err := req.Window(now)
	if err != nil {
		return nil, err
	}

	src, err := f.Weather.Source(req.Model)
	if err != nil {
		return nil, stageError(StageValidate, "forecast_model", ErrInput, err)
	}
	if ahead := window.End.Sub(now); ahead > src.MaxHorizon() {
		return nil, stageError(StageValidate, "days_ahead", ErrInput,
			fmt.Errorf("%d days reaches %s ahead, %s forecasts at most %s", req.DaysAhead, ahead.Round(time.Hour), req.Model, src.MaxHorizon()))
	}

	series, err := f.Weather.Fetch(ctx, req.Model, req.Location, window)
	if err != nil {
		return nil, stageError(StageIngestion, "forecast_model", ErrDataSource, err)
	}
	log.Debugw("stage complete", "stage", StageIngestion, "rows", series.Len(), "source", src.Name())

	module, inv, err := f.lookup(req)
	if err != nil {
		return nil, err
	}
	log.Debugw("stage complete", "stage", StageLookup)

	res := &Result{
		Request:  req,
		Window:   window,
		Source:   src.Name(),
		Index:    series.Index,
		Weather:  series,
		Module:   module,
		Inverter: inv,
	}

	dniExtra := res.geometry(req.Location)
	log.Debugw("stage complete", "stage", StageGeometry)

	res.airmass(req.Location)
	log.Debugw("stage complete", "stage", StageAirmass)

	res.poa(req.Surface, dniExtra)
	log.Debugw("stage complete", "stage", StagePOA)

	if err := res.cellTemperature(req.Mounting); err != nil {
		return nil, err
	}
	log.Debugw("stage complete", "stage", StageTemperature)

	res.dc()
	log.Debugw("stage complete", "stage", StageDC)

	res.ac()
	log.Debugw("stage complete", "stage", StageAC)

	if err := res.verify(); err != nil {
		log.Errorw("forecast produced invalid output", "error", err)
		return nil, err
	}

	res.Summary = summarize(res, req.Location)
	log.Infow("forecast complete",
		"rows", len(res.Index),
		"dc_wh", res.Summary.DCEnergy,
		"ac_wh", res.Summary.ACEnergy,
		"peak_ac_w", res.Summary.PeakAC,
		"clipped_steps", res.Summary.ClippedSteps,
		"elapsed", time.Since(started))

	return res, nil
}

func (f *Forecaster) lookup(req Request) (pvsystem.ModuleParameters, inverter.Parameters, error) {
	module, err := f.Equipment.LookupModule(req.Module.Library, req.Module.Name)
	if err != nil {
		return pvsystem.ModuleParameters{}, inverter.Parameters{}, stageError(StageLookup, "module", ErrLookup, err)
	}
	if err := module.Validate(); err != nil {
		return pvsystem.ModuleParameters{}, inverter.Parameters{}, stageError(StageLookup, "module", ErrLookup, err)
	}

	inv, err := f.Equipment.LookupInverter(req.Inverter.Library, req.Inverter.Name)
	if err != nil {
		return pvsystem.ModuleParameters{}, inverter.Parameters{}, stageError(StageLookup, "inverter", ErrLookup, err)
	}
	if err := inv.Validate(); err != nil {
		return pvsystem.ModuleParameters{}, inverter.Parameters{}, stageError(StageLookup, "inverter", ErrLookup, err)
	}

	return module, inv, nil
}

// geometry fills the solar position and returns the extraterrestrial
// irradiance per row
func (r *Result) geometry(loc types.Location) []float64 {
	n := len(r.Index)
	sp := types.SolarPosition{
		Zenith:            make([]float64, n),
		ApparentZenith:    make([]float64, n),
		ApparentElevation: make([]float64, n),
		Azimuth:           make([]float64, n),
		EquationOfTime:    make([]float64, n),
	}
	dniExtra := make([]float64, n)

	for i, ts := range r.Index {
		pos := solar.CalculatePosition(ts, loc.Latitude, loc.Longitude)
		sp.Zenith[i] = pos.Zenith
		sp.ApparentZenith[i] = pos.ApparentZenith
		sp.ApparentElevation[i] = pos.ApparentElevation
		sp.Azimuth[i] = pos.Azimuth
		sp.EquationOfTime[i] = pos.EquationOfTime
		dniExtra[i] = solar.ExtraRadiation(ts)
	}

	r.SolarPosition = sp
	return dniExtra
}

// airmass fills the pressure-corrected airmass
func (r *Result) airmass(loc types.Location) {
	pressure := solar.AltitudeToPressure(loc.Altitude)
	r.Airmass = make([]float64, len(r.Index))
	for i, z := range r.SolarPosition.ApparentZenith {
		r.Airmass[i] = solar.AbsoluteAirmass(solar.RelativeAirmass(z), pressure)
	}
}

// poa fills the angle of incidence and the plane-of-array breakdown
func (r *Result) poa(surface types.SurfaceOrientation, dniExtra []float64) {
	n := len(r.Index)
	w := r.Weather
	sp := r.SolarPosition

	r.AOI = make([]float64, n)
	r.POA = types.POAIrradiance{
		Global:        make([]float64, n),
		Direct:        make([]float64, n),
		Diffuse:       make([]float64, n),
		SkyDiffuse:    make([]float64, n),
		GroundDiffuse: make([]float64, n),
	}

	for i := range r.Index {
		zenith, azimuth := sp.ApparentZenith[i], sp.Azimuth[i]
		sky := irradiance.HayDavies(surface.Tilt, surface.Azimuth, w.DHI[i], w.DNI[i], dniExtra[i], zenith, azimuth)
		ground := irradiance.GroundDiffuse(surface.Tilt, w.GHI[i], surface.Albedo)
		aoi := irradiance.AOI(surface.Tilt, surface.Azimuth, zenith, azimuth)
		c := irradiance.POAComponents(aoi, w.DNI[i], sky, ground, zenith)

		r.AOI[i] = aoi
		r.POA.Global[i] = c.Global
		r.POA.Direct[i] = c.Direct
		r.POA.Diffuse[i] = c.Diffuse
		r.POA.SkyDiffuse[i] = c.SkyDiffuse
		r.POA.GroundDiffuse[i] = c.GroundDiffuse
	}
}

func (r *Result) cellTemperature(mounting string) error {
	params, err := temperature.Lookup(mounting)
	if err != nil {
		return stageError(StageTemperature, "mounting", ErrConfiguration, err)
	}

	r.CellTemperature = make(types.CellTemperature, len(r.Index))
	for i := range r.Index {
		r.CellTemperature[i] = temperature.SAPMCell(r.POA.Global[i], r.Weather.TempAir[i], r.Weather.WindSpeed[i], params)
	}
	return nil
}

// dc evaluates the module operating point. With the sun at or below the
// horizon the module is dark.
func (r *Result) dc() {
	n := len(r.Index)
	r.DC = types.DCOutput{
		Isc: make([]float64, n),
		Imp: make([]float64, n),
		Voc: make([]float64, n),
		Vmp: make([]float64, n),
		Pmp: make([]float64, n),
		Ix:  make([]float64, n),
		Ixx: make([]float64, n),
	}

	for i := range r.Index {
		if r.SolarPosition.ApparentZenith[i] >= 90 {
			continue
		}
		ee := pvsystem.EffectiveIrradiance(r.POA.Direct[i], r.POA.Diffuse[i], r.Airmass[i], r.AOI[i], r.Module)
		pt := pvsystem.SAPM(ee, r.CellTemperature[i], r.Module)

		r.DC.Isc[i] = pt.Isc
		r.DC.Imp[i] = pt.Imp
		r.DC.Voc[i] = pt.Voc
		r.DC.Vmp[i] = pt.Vmp
		r.DC.Pmp[i] = pt.Pmp
		r.DC.Ix[i] = pt.Ix
		r.DC.Ixx[i] = pt.Ixx
	}
}

func (r *Result) ac() {
	n := len(r.Index)
	r.AC = types.ACOutput{
		Power:   make([]float64, n),
		Clipped: make([]bool, n),
	}
	for i := range r.Index {
		r.AC.Power[i], r.AC.Clipped[i] = inverter.Sandia(r.DC.Vmp[i], r.DC.Pmp[i], r.Inverter)
	}
}
