package forecast

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrissnell/pvforecast/internal/equipment"
	"github.com/chrissnell/pvforecast/internal/types"
	"github.com/chrissnell/pvforecast/internal/weather"
	"github.com/chrissnell/pvforecast/pkg/config"
	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/pvsystem"
	"github.com/chrissnell/pvforecast/pkg/temperature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cs5p = "Canadian_Solar_CS5P_220M___2009_"
	abb  = "ABB__MICRO_0_25_I_OUTD_US_208__208V_"
)

// 08:00 local in Golden, CO on the June solstice
var fixedNow = time.Date(2024, 6, 21, 14, 0, 0, 0, time.UTC)

func goldenRequest() Request {
	return Request{
		Location:  types.Location{Latitude: 39.7423, Longitude: -105.1785, Timezone: "America/Denver"},
		DaysAhead: 1,
		Surface:   types.SurfaceOrientation{Tilt: 30, Azimuth: 180, Albedo: 0.2},
		Module:    equipment.Key{Library: "SandiaMod", Name: cs5p},
		Inverter:  equipment.Key{Library: "sandiainverter", Name: abb},
		Model:     weather.GFS,
	}
}

func clearSkyForecaster() *Forecaster {
	return &Forecaster{
		Weather:   weather.NewClearSkyProvider(config.ClearSkyData{Interval: time.Hour}),
		Equipment: equipment.Builtin(),
		Now:       func() time.Time { return fixedNow },
	}
}

// stubSource serves a fixed hourly series over any window
type stubSource struct {
	dni, dhi, ghi float64
	err           error
	empty         bool
	ragged        bool
	block         bool
	horizon       time.Duration
	calls         int32
}

func (s *stubSource) FetchWeather(ctx context.Context, loc types.Location, window types.ForecastWindow) (types.WeatherSeries, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block {
		<-ctx.Done()
		return types.WeatherSeries{}, ctx.Err()
	}
	if s.err != nil {
		return types.WeatherSeries{}, s.err
	}
	var out types.WeatherSeries
	if s.empty {
		return out, nil
	}
	for ts := window.Start; ts.Before(window.End); ts = ts.Add(time.Hour) {
		out.Index = append(out.Index, ts)
		out.DNI = append(out.DNI, s.dni)
		out.DHI = append(out.DHI, s.dhi)
		out.GHI = append(out.GHI, s.ghi)
		out.TempAir = append(out.TempAir, 25)
		out.WindSpeed = append(out.WindSpeed, 2)
	}
	if s.ragged {
		out.DNI, out.DHI, out.GHI = out.DNI[:1], out.DHI[:1], out.GHI[:1]
		out.TempAir, out.WindSpeed = out.TempAir[:1], out.WindSpeed[:1]
	}
	return out, nil
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) MaxHorizon() time.Duration {
	if s.horizon == 0 {
		return 21 * 24 * time.Hour
	}
	return s.horizon
}

func stubForecaster(src *stubSource, timeout time.Duration) *Forecaster {
	return &Forecaster{
		Weather:   weather.NewStaticProvider(map[weather.Model]weather.Source{weather.GFS: src}, timeout),
		Equipment: equipment.Builtin(),
		Now:       func() time.Time { return fixedNow },
	}
}

func TestRunGoldenScenario(t *testing.T) {
	res, err := clearSkyForecaster().Run(context.Background(), goldenRequest())
	require.NoError(t, err)

	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	wantStart := time.Date(2024, 6, 21, 0, 0, 0, 0, denver)

	assert.True(t, res.Window.Start.Equal(wantStart))
	assert.True(t, res.Window.End.Equal(wantStart.AddDate(0, 0, 1)))

	// Hourly cadence spanning exactly the window
	require.Len(t, res.Index, 24)
	assert.True(t, res.Index[0].Equal(res.Window.Start))
	for i := 1; i < len(res.Index); i++ {
		assert.Equal(t, time.Hour, res.Index[i].Sub(res.Index[i-1]))
	}
	assert.True(t, res.Index[23].Add(time.Hour).Equal(res.Window.End))

	for _, col := range [][]float64{
		res.POA.Global, res.POA.Direct, res.POA.Diffuse, res.POA.SkyDiffuse, res.POA.GroundDiffuse,
		res.CellTemperature, res.DC.Pmp, res.DC.Vmp, res.DC.Voc, res.AC.Power,
	} {
		assert.Len(t, col, 24)
	}

	// A clear solstice day gets close to the module rating
	assert.Greater(t, res.Summary.PeakAC, 150.0)
	assert.LessOrEqual(t, res.Summary.PeakAC, 250.0)
	assert.Greater(t, res.Summary.ACEnergy, 800.0)
	assert.Less(t, res.Summary.ACEnergy, res.Summary.DCEnergy)
	assert.InDelta(t, res.Summary.ACEnergy/res.Summary.DCEnergy, res.Summary.InverterEfficiency, 1e-12)
	assert.Greater(t, res.Summary.InverterEfficiency, 0.85)
	assert.Less(t, res.Summary.InverterEfficiency, 1.0)
	assert.InDelta(t, res.Summary.ACEnergy/res.Module.RatedPower(), res.Summary.SpecificYield, 1e-12)

	require.Len(t, res.Summary.Days, 1)
	day := res.Summary.Days[0]
	assert.Equal(t, "2024-06-21", day.Date)
	assert.True(t, day.Sunrise.Before(day.Sunset))
	assert.InDelta(t, res.Summary.ACEnergy, day.ACEnergy, 1e-9)

	assert.Equal(t, "clearsky", res.Source)
}

func TestRunIsIdempotent(t *testing.T) {
	f := clearSkyForecaster()
	first, err := f.Run(context.Background(), goldenRequest())
	require.NoError(t, err)
	second, err := f.Run(context.Background(), goldenRequest())
	require.NoError(t, err)

	require.Equal(t, len(first.AC.Power), len(second.AC.Power))
	for i := range first.AC.Power {
		assert.Equal(t, math.Float64bits(first.AC.Power[i]), math.Float64bits(second.AC.Power[i]))
		assert.Equal(t, math.Float64bits(first.DC.Pmp[i]), math.Float64bits(second.DC.Pmp[i]))
		assert.Equal(t, math.Float64bits(first.POA.Global[i]), math.Float64bits(second.POA.Global[i]))
		assert.Equal(t, math.Float64bits(first.CellTemperature[i]), math.Float64bits(second.CellTemperature[i]))
	}
	assert.Equal(t, first, second)
}

func TestRunConcurrent(t *testing.T) {
	f := clearSkyForecaster()
	want, err := f.Run(context.Background(), goldenRequest())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.Run(context.Background(), goldenRequest())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.AC.Power, results[i].AC.Power)
	}
}

func TestRunNightRowsAreDark(t *testing.T) {
	// Upstream reports diffuse light around the clock
	src := &stubSource{dni: 300, dhi: 120, ghi: 400}
	res, err := stubForecaster(src, 0).Run(context.Background(), goldenRequest())
	require.NoError(t, err)

	night := 0
	for i := range res.Index {
		if res.SolarPosition.ApparentZenith[i] < 90 {
			continue
		}
		night++
		assert.Zero(t, res.POA.Direct[i], "poa_direct at %s", res.Index[i])
		assert.Zero(t, res.DC.Pmp[i], "p_mp at %s", res.Index[i])
		assert.Zero(t, res.AC.Power[i], "p_ac at %s", res.Index[i])
	}
	assert.Greater(t, night, 4)
}

func TestRunPOAAdditivity(t *testing.T) {
	src := &stubSource{dni: 850, dhi: 140, ghi: 900}
	f := stubForecaster(src, 0)

	for _, tilt := range []float64{0, 15, 45, 90} {
		for _, az := range []float64{0, 90, 180, 270, 359.9} {
			for _, albedo := range []float64{0, 0.2, 1} {
				req := goldenRequest()
				req.Surface = types.SurfaceOrientation{Tilt: tilt, Azimuth: az, Albedo: albedo}

				res, err := f.Run(context.Background(), req)
				require.NoError(t, err)

				p := res.POA
				for i := range res.Index {
					assert.True(t, closeRel(p.Global[i], p.Direct[i]+p.Diffuse[i]))
					assert.True(t, closeRel(p.Diffuse[i], p.SkyDiffuse[i]+p.GroundDiffuse[i]))
					assert.GreaterOrEqual(t, p.Direct[i], 0.0)
					assert.GreaterOrEqual(t, p.SkyDiffuse[i], 0.0)
					assert.GreaterOrEqual(t, p.GroundDiffuse[i], 0.0)
				}
			}
		}
	}
}

func TestRunAlbedoBoundaries(t *testing.T) {
	src := &stubSource{dni: 700, dhi: 150, ghi: 800}
	f := stubForecaster(src, 0)

	run := func(albedo float64) *Result {
		req := goldenRequest()
		req.Surface.Albedo = albedo
		res, err := f.Run(context.Background(), req)
		require.NoError(t, err)
		return res
	}

	zero := run(0)
	for _, g := range zero.POA.GroundDiffuse {
		assert.Zero(t, g)
	}

	one := run(1)
	for _, albedo := range []float64{0, 0.2, 0.5, 0.99} {
		other := run(albedo)
		for i := range one.Index {
			assert.GreaterOrEqual(t, one.POA.GroundDiffuse[i], other.POA.GroundDiffuse[i])
		}
	}
}

func TestRunACBounds(t *testing.T) {
	// An undersized inverter clips every sunny hour
	small := inverter.Parameters{
		Name: "Tiny", Vac: 208, Pso: 1, Paco: 40, Pdco: 42, Vdco: 40,
		C0: -0.00004, C1: -0.0001, C2: 0.0005, C3: -0.013, Pnt: 0.05,
	}
	cat := equipment.NewCatalog()
	cat.AddInverter(equipment.SandiaInverters, small)

	f := clearSkyForecaster()
	f.Equipment = equipment.Chain(cat, equipment.Builtin())

	req := goldenRequest()
	req.Inverter = equipment.Key{Library: equipment.SandiaInverters, Name: "Tiny"}

	res, err := f.Run(context.Background(), req)
	require.NoError(t, err)

	for i, p := range res.AC.Power {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, small.Paco)
		if res.DC.Pmp[i] > 100 {
			assert.True(t, res.AC.Clipped[i])
			assert.Equal(t, small.Paco, p)
		}
	}
	assert.Greater(t, res.Summary.ClippedSteps, 0)
}

// recordingDB counts lookups
type recordingDB struct {
	equipment.Database
	modules int
}

func (r *recordingDB) LookupModule(library, name string) (pvsystem.ModuleParameters, error) {
	r.modules++
	return r.Database.LookupModule(library, name)
}

func TestRunUnknownModule(t *testing.T) {
	src := &stubSource{dni: 700, dhi: 150, ghi: 800}
	f := stubForecaster(src, 0)
	db := &recordingDB{Database: equipment.Builtin()}
	f.Equipment = db

	req := goldenRequest()
	req.Module.Name = "No_Such_Module"

	res, err := f.Run(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrLookup)
	assert.ErrorIs(t, err, equipment.ErrNotFound)
	assert.NotErrorIs(t, err, ErrComputation)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageLookup, se.Stage)
	assert.Equal(t, "module", se.Param)

	// Ingestion ran, the lookup failed once, nothing after it
	assert.EqualValues(t, 1, atomic.LoadInt32(&src.calls))
	assert.Equal(t, 1, db.modules)
}

func TestRunUnknownInverter(t *testing.T) {
	req := goldenRequest()
	req.Inverter.Name = "Nope"

	_, err := clearSkyForecaster().Run(context.Background(), req)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "inverter", se.Param)
	assert.ErrorIs(t, err, ErrLookup)
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Request)
		params []string
	}{
		{"tilt too steep", func(r *Request) { r.Surface.Tilt = 91 }, []string{"surface_tilt"}},
		{"negative tilt", func(r *Request) { r.Surface.Tilt = -1 }, []string{"surface_tilt"}},
		{"azimuth 360", func(r *Request) { r.Surface.Azimuth = 360 }, []string{"surface_azimuth"}},
		{"albedo above one", func(r *Request) { r.Surface.Albedo = 1.1 }, []string{"albedo"}},
		{"albedo NaN", func(r *Request) { r.Surface.Albedo = math.NaN() }, []string{"albedo"}},
		{"zero days", func(r *Request) { r.DaysAhead = 0 }, []string{"days_ahead"}},
		{"too many days", func(r *Request) { r.DaysAhead = 22 }, []string{"days_ahead"}},
		{"latitude", func(r *Request) { r.Location.Latitude = 91 }, []string{"latitude"}},
		{"longitude", func(r *Request) { r.Location.Longitude = -181 }, []string{"longitude"}},
		{"timezone", func(r *Request) { r.Location.Timezone = "Mars/Olympus_Mons" }, []string{"timezone"}},
		{"model", func(r *Request) { r.Model = "ECMWF" }, []string{"forecast_model"}},
		{"module", func(r *Request) { r.Module = equipment.Key{} }, []string{"module"}},
		{"everything", func(r *Request) {
			r.Surface.Tilt = 100
			r.Surface.Albedo = -0.5
			r.DaysAhead = 30
		}, []string{"surface_tilt", "albedo", "days_ahead"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{}
			req := goldenRequest()
			tt.modify(&req)

			_, err := stubForecaster(src, 0).Run(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInput)

			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, StageValidate, se.Stage)
			for _, p := range tt.params {
				assert.Contains(t, se.Param, p)
				assert.Contains(t, err.Error(), p)
			}

			assert.Zero(t, atomic.LoadInt32(&src.calls), "no weather fetch on invalid input")
		})
	}
}

func TestRunUnknownModelError(t *testing.T) {
	req := goldenRequest()
	req.Model = "ECMWF"

	_, err := clearSkyForecaster().Run(context.Background(), req)
	var ume *weather.UnknownModelError
	require.True(t, errors.As(err, &ume))
	assert.Equal(t, "ECMWF", ume.Name)
}

func TestRunHorizonExceeded(t *testing.T) {
	req := goldenRequest()
	req.Model = weather.HRRR
	req.DaysAhead = 5

	_, err := clearSkyForecaster().Run(context.Background(), req)
	require.ErrorIs(t, err, ErrInput)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "days_ahead", se.Param)

	req.DaysAhead = 2
	_, err = clearSkyForecaster().Run(context.Background(), req)
	require.NoError(t, err)
}

func TestRunDataSourceErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   *stubSource
		cause error
	}{
		{"upstream failure", &stubSource{err: &weather.UpstreamError{Status: 503}}, weather.ErrUpstream},
		{"malformed", &stubSource{err: weather.ErrMalformed}, weather.ErrMalformed},
		{"empty", &stubSource{empty: true}, weather.ErrEmptySeries},
		{"ragged columns", &stubSource{ragged: true}, types.ErrMalformedSeries},
		{"timeout", &stubSource{block: true}, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stubForecaster(tt.src, 20*time.Millisecond).Run(context.Background(), goldenRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataSource)
			assert.ErrorIs(t, err, tt.cause)

			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, StageIngestion, se.Stage)

			// No retries inside the pipeline
			assert.EqualValues(t, 1, atomic.LoadInt32(&tt.src.calls))
		})
	}
}

func TestRunUnknownMounting(t *testing.T) {
	req := goldenRequest()
	req.Mounting = "floating"

	src := &stubSource{dni: 800, dhi: 100, ghi: 900}
	_, err := stubForecaster(src, 0).Run(context.Background(), req)
	require.ErrorIs(t, err, ErrInput)
	require.ErrorIs(t, err, temperature.ErrUnknownMounting)
	assert.Contains(t, err.Error(), "open_rack_glass_polymer")

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageValidate, se.Stage)
	assert.Equal(t, "mounting", se.Param)

	// Rejected before ingestion
	assert.Zero(t, atomic.LoadInt32(&src.calls))
}

func TestRunMountingChangesTemperature(t *testing.T) {
	f := clearSkyForecaster()

	open, err := f.Run(context.Background(), goldenRequest())
	require.NoError(t, err)

	req := goldenRequest()
	req.Mounting = "insulated_back_glass_polymer"
	insulated, err := f.Run(context.Background(), req)
	require.NoError(t, err)

	peakOpen, peakInsulated := 0.0, 0.0
	for i := range open.Index {
		peakOpen = math.Max(peakOpen, open.CellTemperature[i])
		peakInsulated = math.Max(peakInsulated, insulated.CellTemperature[i])
	}
	assert.Greater(t, peakInsulated, peakOpen)
	assert.Less(t, insulated.Summary.DCEnergy, open.Summary.DCEnergy)
}
