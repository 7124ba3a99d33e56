package solar

import (
	"math"
	"time"
)

// spencerSolarConstant is the solar constant (W/m²) used with the Spencer series
const spencerSolarConstant = 1366.1

// standardPressure is sea-level pressure in Pa
const standardPressure = 101325.0

// ExtraRadiation returns the extraterrestrial normal irradiance (W/m²) at t
// using Spencer's (1971) Fourier series for the Earth-Sun distance.
func ExtraRadiation(t time.Time) float64 {
	b := 2 * math.Pi * float64(t.UTC().YearDay()-1) / 365.0
	rOverR0Sq := 1.00011 +
		0.034221*math.Cos(b) +
		0.00128*math.Sin(b) +
		0.000719*math.Cos(2*b) +
		0.000077*math.Sin(2*b)
	return spencerSolarConstant * rOverR0Sq
}

// RelativeAirmass returns the Kasten-Young (1989) relative optical airmass for
// an apparent zenith angle in degrees. There is no beam path with the sun at or
// below the horizon, so zenith >= 90 returns 0.
func RelativeAirmass(zenith float64) float64 {
	if math.IsNaN(zenith) || zenith >= 90.0 {
		return 0
	}
	return 1.0 / (math.Cos(degToRad(zenith)) + 0.50572*math.Pow(6.07995+(90.0-zenith), -1.6364))
}

// AltitudeToPressure converts site altitude (m) to average air pressure (Pa)
func AltitudeToPressure(altitude float64) float64 {
	return 100.0 * math.Pow((44331.514-altitude)/11880.516, 1.0/0.1902632)
}

// AbsoluteAirmass corrects a relative airmass for site pressure (Pa)
func AbsoluteAirmass(relative, pressure float64) float64 {
	return relative * pressure / standardPressure
}
