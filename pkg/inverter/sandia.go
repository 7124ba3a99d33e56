// Package inverter converts DC operating points to AC power with the Sandia
// grid-connected inverter model.
package inverter

import (
	"fmt"
	"math"
)

// Parameters are the Sandia inverter coefficients, named as in the SAM
// inverter databases
type Parameters struct {
	Name     string  `json:"name"`
	Vac      float64 `json:"vac"`
	Pso      float64 `json:"pso"`  // DC power to start the inversion process (W)
	Paco     float64 `json:"paco"` // rated maximum AC output (W)
	Pdco     float64 `json:"pdco"` // DC power at which Paco is reached (W)
	Vdco     float64 `json:"vdco"` // DC voltage at which the AC rating is achieved (V)
	C0       float64 `json:"c0"`
	C1       float64 `json:"c1"`
	C2       float64 `json:"c2"`
	C3       float64 `json:"c3"`
	Pnt      float64 `json:"pnt"` // AC power consumed at night (W)
	Vdcmax   float64 `json:"vdcmax"`
	Idcmax   float64 `json:"idcmax"`
	MpptLow  float64 `json:"mppt_low"`
	MpptHigh float64 `json:"mppt_high"`
}

// Validate rejects coefficient sets the model cannot evaluate
func (p Parameters) Validate() error {
	if p.Paco <= 0 || p.Pdco <= 0 {
		return fmt.Errorf("inverter %q: Paco and Pdco must be positive", p.Name)
	}
	if p.Pso < 0 || p.Pso >= p.Pdco {
		return fmt.Errorf("inverter %q: Pso must be in [0, Pdco)", p.Name)
	}
	return nil
}

// Sandia returns AC output (W) for DC voltage and power at the module max-power
// point, and whether the output hit the AC rating. Output is held at 0 below
// the start-up threshold Pso and never exceeds Paco.
func Sandia(vdc, pdc float64, p Parameters) (pac float64, clipped bool) {
	if math.IsNaN(vdc) || math.IsNaN(pdc) || pdc < p.Pso || pdc <= 0 {
		return 0, false
	}

	dv := vdc - p.Vdco
	a := p.Pdco * (1 + p.C1*dv)
	b := p.Pso * (1 + p.C2*dv)
	c := p.C0 * (1 + p.C3*dv)

	if a-b <= 0 {
		return 0, false
	}

	// The efficiency curve reaches Paco at pdc == a; past that point the
	// quadratic turns over, so the inverter is simply clipped.
	if pdc >= a {
		return p.Paco, true
	}

	pac = (p.Paco/(a-b)-c*(a-b))*(pdc-b) + c*(pdc-b)*(pdc-b)

	if pac >= p.Paco {
		return p.Paco, true
	}
	return math.Max(pac, 0), false
}

// Efficiency is AC output over DC input, 0 when there is no DC input
func Efficiency(pac, pdc float64) float64 {
	if pdc <= 0 {
		return 0
	}
	return pac / pdc
}
