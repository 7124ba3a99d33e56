// Package solar provides the solar geometry used by the forecast pipeline:
// sun position, extraterrestrial irradiance, airmass, a clear-sky model and
// daylight hours.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	meeussolar "github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

const (
	// deltaT is TT - UT in seconds for the 2020s.
	deltaT = 69.2

	// Standard atmosphere used for the refraction correction
	refractionPressureMbar = 1010.0
	refractionTempC        = 10.0

	// Below this true elevation the sun's upper limb has set and refraction
	// is no longer applied (solar radius + horizon refraction)
	refractionCutoffDeg = -0.8333
)

// Position is the sun's location in the observer's sky. All angles are in
// degrees; azimuth is measured clockwise from north.
type Position struct {
	Zenith            float64
	ApparentZenith    float64
	Elevation         float64
	ApparentElevation float64
	Azimuth           float64
	EquationOfTime    float64 // minutes
}

// CalculatePosition returns the solar position at t for an observer at the
// given latitude and longitude (degrees, east positive). Apparent coordinates
// come from the Meeus ephemeris and are valid at night: a zenith above 90 is
// a normal result.
func CalculatePosition(t time.Time, latitude, longitude float64) Position {
	jd := julian.TimeToJD(t.UTC())
	jde := jd + deltaT/86400.0

	α, δ := meeussolar.ApparentEquatorial(jde)
	st := sidereal.Apparent(jd)

	// Meeus counts longitude positive westward and azimuth westward from south
	A, h := coord.EqToHz(α, δ, unit.AngleFromDeg(latitude), unit.AngleFromDeg(-longitude), st)

	elevation := h.Deg()
	apparent := elevation + refraction(elevation)

	return Position{
		Zenith:            90.0 - elevation,
		ApparentZenith:    90.0 - apparent,
		Elevation:         elevation,
		ApparentElevation: apparent,
		Azimuth:           fixAngle(A.Deg() + 180.0),
		EquationOfTime:    equationOfTime(t),
	}
}

// refraction returns the atmospheric refraction correction in degrees for a
// true elevation, using Saemundsson's formula scaled for pressure and
// temperature.
func refraction(elevation float64) float64 {
	if elevation < refractionCutoffDeg {
		return 0
	}
	r := 1.02 / (60.0 * math.Tan(degToRad(elevation+10.3/(elevation+5.11))))
	return r * (refractionPressureMbar / 1010.0) * (283.0 / (273.0 + refractionTempC))
}
