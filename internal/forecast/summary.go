package forecast

import (
	"time"

	"github.com/chrissnell/pvforecast/internal/types"
	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/solar"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// Summary condenses a forecast into energy totals and daylight hours.
// InverterEfficiency is AC over DC energy for the window; SpecificYield is
// AC energy per watt of module rating (Wh/Wp).
type Summary struct {
	DCEnergy           float64      `json:"dc_energy_wh"`
	ACEnergy           float64      `json:"ac_energy_wh"`
	PeakAC             float64      `json:"peak_ac_w"`
	PeakACTime         time.Time    `json:"peak_ac_time"`
	ClippedSteps       int          `json:"clipped_steps"`
	InverterEfficiency float64      `json:"inverter_efficiency"`
	SpecificYield      float64      `json:"specific_yield"`
	Days               []DaySummary `json:"days"`
}

// DaySummary covers one local calendar day of the window
type DaySummary struct {
	Date     string    `json:"date"`
	Sunrise  time.Time `json:"sunrise,omitempty"`
	Sunset   time.Time `json:"sunset,omitempty"`
	Polar    bool      `json:"polar,omitempty"`
	ACEnergy float64   `json:"ac_energy_wh"`
}

// hoursSince converts the index to fractional hours from start
func hoursSince(start time.Time, index []time.Time) []float64 {
	x := make([]float64, len(index))
	for i, ts := range index {
		x[i] = ts.Sub(start).Hours()
	}
	return x
}

// energy integrates power (W) over the index with the trapezoidal rule (Wh)
func energy(x, power []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return integrate.Trapezoidal(x, power)
}

func summarize(r *Result, loc types.Location) Summary {
	s := Summary{}
	if len(r.Index) == 0 {
		return s
	}

	x := hoursSince(r.Window.Start, r.Index)
	s.DCEnergy = energy(x, r.DC.Pmp)
	s.ACEnergy = energy(x, r.AC.Power)
	s.InverterEfficiency = inverter.Efficiency(s.ACEnergy, s.DCEnergy)
	if rated := r.Module.RatedPower(); rated > 0 {
		s.SpecificYield = s.ACEnergy / rated
	}

	peak := floats.MaxIdx(r.AC.Power)
	s.PeakAC = r.AC.Power[peak]
	s.PeakACTime = r.Index[peak]

	for _, c := range r.AC.Clipped {
		if c {
			s.ClippedSteps++
		}
	}

	tz := r.Window.Start.Location()
	for day := r.Window.Start; day.Before(r.Window.End); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, tz)
		dl := solar.CalculateDaylight(noon, loc.Latitude, loc.Longitude)

		ds := DaySummary{
			Date:  day.Format("2006-01-02"),
			Polar: dl.Polar,
		}
		if !dl.Polar {
			ds.Sunrise = dl.Sunrise.In(tz)
			ds.Sunset = dl.Sunset.In(tz)
		}

		var dx, dp []float64
		for i, ts := range r.Index {
			if !ts.Before(day) && ts.Before(next) {
				dx = append(dx, x[i])
				dp = append(dp, r.AC.Power[i])
			}
		}
		ds.ACEnergy = energy(dx, dp)
		s.Days = append(s.Days, ds)
	}

	return s
}
