// Package pvsystem implements the Sandia Array Performance Model (SAPM) for
// PV module electrical output.
package pvsystem

import "fmt"

// ModuleParameters are the SAPM coefficients of one module, named as in the
// Sandia module database.
type ModuleParameters struct {
	Name            string  `json:"name"`
	Vintage         string  `json:"vintage,omitempty"`
	Area            float64 `json:"area"`
	Material        string  `json:"material,omitempty"`
	CellsInSeries   float64 `json:"cells_in_series"`
	ParallelStrings float64 `json:"parallel_strings"`

	Isco float64 `json:"isco"`
	Voco float64 `json:"voco"`
	Impo float64 `json:"impo"`
	Vmpo float64 `json:"vmpo"`
	Aisc float64 `json:"aisc"`
	Aimp float64 `json:"aimp"`

	C0    float64 `json:"c0"`
	C1    float64 `json:"c1"`
	Bvoco float64 `json:"bvoco"`
	Mbvoc float64 `json:"mbvoc"`
	Bvmpo float64 `json:"bvmpo"`
	Mbvmp float64 `json:"mbvmp"`
	N     float64 `json:"n"`
	C2    float64 `json:"c2"`
	C3    float64 `json:"c3"`

	A0 float64 `json:"a0"`
	A1 float64 `json:"a1"`
	A2 float64 `json:"a2"`
	A3 float64 `json:"a3"`
	A4 float64 `json:"a4"`

	B0 float64 `json:"b0"`
	B1 float64 `json:"b1"`
	B2 float64 `json:"b2"`
	B3 float64 `json:"b3"`
	B4 float64 `json:"b4"`
	B5 float64 `json:"b5"`

	DTC float64 `json:"dtc"`
	FD  float64 `json:"fd"`
	A   float64 `json:"a"`
	B   float64 `json:"b"`

	C4   float64 `json:"c4"`
	C5   float64 `json:"c5"`
	IXO  float64 `json:"ixo"`
	IXXO float64 `json:"ixxo"`
	C6   float64 `json:"c6"`
	C7   float64 `json:"c7"`
}

// Validate rejects coefficient sets the model cannot evaluate
func (m ModuleParameters) Validate() error {
	if m.CellsInSeries <= 0 {
		return fmt.Errorf("module %q: cells in series must be positive", m.Name)
	}
	if m.Isco <= 0 || m.Impo <= 0 || m.Voco <= 0 || m.Vmpo <= 0 {
		return fmt.Errorf("module %q: reference currents and voltages must be positive", m.Name)
	}
	if m.N <= 0 {
		return fmt.Errorf("module %q: diode factor must be positive", m.Name)
	}
	return nil
}

// RatedPower is the module's max-power rating at reference conditions (W)
func (m ModuleParameters) RatedPower() float64 {
	return m.Impo * m.Vmpo
}
