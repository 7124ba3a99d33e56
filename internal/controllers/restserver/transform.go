package restserver

import (
	"encoding/json"

	"github.com/chrissnell/pvforecast/internal/database"
	"github.com/chrissnell/pvforecast/internal/forecast"
)

// transformResult converts a pipeline result for output. Points are left out
// for summary views.
func transformResult(res *forecast.Result, withPoints bool) *ForecastResponse {
	fr := &ForecastResponse{
		Request: res.Request,
		Window:  res.Window,
		Source:  res.Source,
		Summary: res.Summary,
	}
	if !withPoints {
		return fr
	}

	// Pre-allocate slice with exact capacity to avoid multiple reallocations
	fr.Points = make([]*ForecastPoint, 0, len(res.Index))
	for i, ts := range res.Index {
		fr.Points = append(fr.Points, &ForecastPoint{
			Timestamp: ts.UnixMilli(),
			GHI:       res.Weather.GHI[i],
			DNI:       res.Weather.DNI[i],
			DHI:       res.Weather.DHI[i],
			TempAir:   res.Weather.TempAir[i],
			WindSpeed: res.Weather.WindSpeed[i],
			POAGlobal: res.POA.Global[i],
			TempCell:  res.CellTemperature[i],
			PDC:       res.DC.Pmp[i],
			PAC:       res.AC.Power[i],
			Clipped:   res.AC.Clipped[i],
		})
	}
	return fr
}

// transformRun converts a stored run and its points for output
func transformRun(run *database.ForecastRun, points []database.ForecastPoint) *RunResponse {
	rr := &RunResponse{
		ID:          run.ID,
		CreatedAt:   run.CreatedAt,
		Model:       run.Model,
		Source:      run.Source,
		Module:      run.Module,
		Inverter:    run.Inverter,
		WindowStart: run.WindowStart,
		WindowEnd:   run.WindowEnd,
		DCEnergy:    run.DCEnergy,
		ACEnergy:    run.ACEnergy,
		PeakAC:      run.PeakAC,
	}
	if len(run.Summary.Bytes) > 0 {
		rr.Summary = json.RawMessage(run.Summary.Bytes)
	}

	if len(points) > 0 {
		rr.Points = make([]*ForecastPoint, 0, len(points))
	}
	for _, p := range points {
		rr.Points = append(rr.Points, &ForecastPoint{
			Timestamp: p.Time.UnixMilli(),
			GHI:       p.GHI,
			DNI:       p.DNI,
			DHI:       p.DHI,
			TempAir:   p.TempAir,
			WindSpeed: p.WindSpeed,
			POAGlobal: p.POAGlobal,
			TempCell:  p.TempCell,
			PDC:       p.PDC,
			PAC:       p.PAC,
			Clipped:   p.Clipped,
		})
	}
	return rr
}
