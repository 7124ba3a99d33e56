// Package irradiance transposes horizontal irradiance onto a tilted plane:
// angle of incidence, Hay-Davies sky diffuse, ground-reflected diffuse and
// the plane-of-array component sum.
package irradiance

import (
	"fmt"
	"math"
	"strings"
)

// cosd89 floors the zenith cosine in the beam ratio so the ratio stays bounded
// near the horizon
var cosd89 = math.Cos(89.0 * math.Pi / 180.0)

func cosd(deg float64) float64 { return math.Cos(deg * math.Pi / 180.0) }
func sind(deg float64) float64 { return math.Sin(deg * math.Pi / 180.0) }

// Components is the plane-of-array irradiance breakdown (W/m²)
type Components struct {
	Global        float64
	Direct        float64
	Diffuse       float64
	SkyDiffuse    float64
	GroundDiffuse float64
}

// AOIProjection returns the cosine of the angle between the sun vector and the
// surface normal, clipped to [-1, 1]. All angles are in degrees.
func AOIProjection(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth float64) float64 {
	p := cosd(surfaceTilt)*cosd(solarZenith) +
		sind(surfaceTilt)*sind(solarZenith)*cosd(solarAzimuth-surfaceAzimuth)
	return math.Max(-1, math.Min(1, p))
}

// AOI returns the angle of incidence in degrees, in [0, 180]
func AOI(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth float64) float64 {
	return math.Acos(AOIProjection(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth)) * 180.0 / math.Pi
}

// HayDavies returns the sky diffuse irradiance on the tilted surface using the
// Hay-Davies (1980) anisotropic model. The circumsolar share is weighted by the
// anisotropy index dni/dniExtra and projected with the beam ratio; with the sun
// at or below the horizon only the isotropic share remains.
func HayDavies(surfaceTilt, surfaceAzimuth, dhi, dni, dniExtra, solarZenith, solarAzimuth float64) float64 {
	ai := 0.0
	if dniExtra > 0 {
		ai = math.Max(dni, 0) / dniExtra
	}

	rb := 0.0
	if solarZenith < 90 {
		cosTT := math.Max(AOIProjection(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth), 0)
		rb = cosTT / math.Max(cosd(solarZenith), cosd89)
	}

	isotropic := dhi * (1 - ai) * 0.5 * (1 + cosd(surfaceTilt))
	circumsolar := dhi * ai * rb

	return math.Max(isotropic+circumsolar, 0)
}

// GroundDiffuse returns the ground-reflected irradiance on the tilted surface
func GroundDiffuse(surfaceTilt, ghi, albedo float64) float64 {
	return math.Max(ghi*albedo*(1-cosd(surfaceTilt))*0.5, 0)
}

// POAComponents combines beam, sky diffuse and ground diffuse into the
// plane-of-array breakdown. The beam is dropped when the sun is behind the
// panel (aoi > 90) or below the horizon.
func POAComponents(aoi, dni, skyDiffuse, groundDiffuse, solarZenith float64) Components {
	direct := 0.0
	if aoi <= 90 && solarZenith < 90 {
		direct = math.Max(dni*cosd(aoi), 0)
	}
	sky := math.Max(skyDiffuse, 0)
	ground := math.Max(groundDiffuse, 0)
	diffuse := sky + ground

	return Components{
		Global:        direct + diffuse,
		Direct:        direct,
		Diffuse:       diffuse,
		SkyDiffuse:    sky,
		GroundDiffuse: ground,
	}
}

// surfaceAlbedos holds typical ground reflectance by surface type
var surfaceAlbedos = map[string]float64{
	"urban":       0.18,
	"grass":       0.20,
	"fresh grass": 0.26,
	"soil":        0.17,
	"sand":        0.40,
	"snow":        0.65,
	"fresh snow":  0.75,
	"asphalt":     0.12,
	"concrete":    0.30,
	"aluminum":    0.85,
	"copper":      0.74,
	"fresh steel": 0.35,
	"dirty steel": 0.08,
	"sea":         0.06,
}

// SurfaceAlbedo returns the typical albedo of a named ground surface
func SurfaceAlbedo(surface string) (float64, error) {
	a, ok := surfaceAlbedos[strings.ToLower(strings.TrimSpace(surface))]
	if !ok {
		return 0, fmt.Errorf("unknown surface type %q", surface)
	}
	return a, nil
}
