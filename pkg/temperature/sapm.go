// Package temperature implements the Sandia (SAPM) module and cell
// temperature model.
package temperature

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ReferenceIrradiance is the irradiance (W/m²) at which DeltaT applies
const ReferenceIrradiance = 1000.0

// DefaultMounting is the racking configuration used when none is requested
const DefaultMounting = "open_rack_glass_polymer"

// ErrUnknownMounting is returned for a mounting name missing from the table
var ErrUnknownMounting = errors.New("unknown mounting configuration")

// Params are the empirical SAPM thermal coefficients for one mounting
type Params struct {
	A      float64 // natural log of the heat-transfer coefficient at low wind
	B      float64 // wind-cooling coefficient (s/m)
	DeltaT float64 // cell-to-module back temperature difference at 1000 W/m² (°C)
}

var sapmParams = map[string]Params{
	"open_rack_glass_glass":        {A: -3.47, B: -0.0594, DeltaT: 3},
	"close_mount_glass_glass":      {A: -2.98, B: -0.0471, DeltaT: 1},
	"open_rack_glass_polymer":      {A: -3.56, B: -0.0750, DeltaT: 3},
	"insulated_back_glass_polymer": {A: -2.81, B: -0.0455, DeltaT: 0},
}

// Lookup returns the thermal coefficients for a named mounting configuration
func Lookup(mounting string) (Params, error) {
	if mounting == "" {
		mounting = DefaultMounting
	}
	p, ok := sapmParams[mounting]
	if !ok {
		return Params{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownMounting, mounting, strings.Join(Mountings(), ", "))
	}
	return p, nil
}

// Mountings lists the known mounting configurations in sorted order
func Mountings() []string {
	names := make([]string, 0, len(sapmParams))
	for name := range sapmParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SAPMModule returns the back-of-module temperature (°C)
func SAPMModule(poaGlobal, tempAir, windSpeed float64, p Params) float64 {
	return poaGlobal*math.Exp(p.A+p.B*windSpeed) + tempAir
}

// SAPMCell returns the cell temperature (°C) for plane-of-array irradiance
// (W/m²), ambient temperature (°C) and wind speed (m/s)
func SAPMCell(poaGlobal, tempAir, windSpeed float64, p Params) float64 {
	return SAPMModule(poaGlobal, tempAir, windSpeed, p) + poaGlobal/ReferenceIrradiance*p.DeltaT
}
