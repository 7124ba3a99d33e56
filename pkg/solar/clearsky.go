package solar

import (
	"math"
	"time"
)

// Clear-sky model constants
const (
	linkeTurbidity   = 2.0   // Linke turbidity factor, typical for clear skies (range: 2-6)
	beamNormalizer   = 0.7   // Normalization constant for DNI (tuned for accuracy)
	extinctionCoeff  = 0.027 // Atmospheric extinction coefficient
	scaleHeightMeter = 8000.0
)

// ClearSky holds the three irradiance components (W/m²) under a cloudless sky
type ClearSky struct {
	GHI float64
	DNI float64
	DHI float64
}

// ClearSkyIrradiance computes clear-sky irradiance with a simplified
// Ineichen-Perez model. The sun position comes from CalculatePosition, so the
// result is consistent with the geometry the forecast pipeline uses.
func ClearSkyIrradiance(t time.Time, latitude, longitude, altitude float64) ClearSky {
	zenith := CalculatePosition(t, latitude, longitude).ApparentZenith
	if zenith >= 90.0 {
		return ClearSky{} // Sun below horizon, no irradiance
	}

	n := t.UTC().YearDay()
	g0 := ExtraRadiation(t)
	am := RelativeAirmass(zenith)
	cosZ := math.Cos(degToRad(zenith))

	// Direct beam attenuated along the slant path, thinner air at altitude
	dni := g0 * beamNormalizer * math.Exp(-extinctionCoeff*am*linkeTurbidity*math.Exp(-altitude/scaleHeightMeter))

	// Diffuse fraction with a small seasonal swing
	fh := 0.1 + 0.05*math.Sin(math.Pi*float64(n-100)/365.0)
	dhi := fh * g0 * cosZ

	return ClearSky{
		GHI: dni*cosZ + dhi,
		DNI: dni,
		DHI: dhi,
	}
}

// CloudAttenuated scales a clear-sky estimate by cloud cover (percent, 0-100).
// A fully overcast sky keeps the offset fraction of the clear-sky GHI, and the
// beam that is lost is moved into the diffuse component.
func (c ClearSky) CloudAttenuated(cloudCover, offset float64) ClearSky {
	cc := math.Min(math.Max(cloudCover, 0), 100) / 100.0
	ghi := c.GHI * (offset + (1-offset)*(1-cc))
	dni := c.DNI * (1 - cc)
	direct := 0.0
	if c.GHI > 0 {
		direct = dni * (c.GHI - c.DHI) / math.Max(c.DNI, 1e-9)
	}
	dhi := math.Max(ghi-direct, 0)
	return ClearSky{GHI: direct + dhi, DNI: dni, DHI: dhi}
}
