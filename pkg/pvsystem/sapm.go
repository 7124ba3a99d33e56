package pvsystem

import (
	"math"
)

const (
	referenceTemp       = 25.0   // °C
	referenceIrradiance = 1000.0 // W/m²

	elementaryCharge = 1.60218e-19 // C
	boltzmann        = 1.38066e-23 // J/K
)

// Point is the module's electrical operating point
type Point struct {
	Isc float64 // short-circuit current (A)
	Imp float64 // max-power current (A)
	Voc float64 // open-circuit voltage (V)
	Vmp float64 // max-power voltage (V)
	Pmp float64 // max power (W)
	Ix  float64 // current at V = Voc/2 (A)
	Ixx float64 // current at V = (Voc+Vmp)/2 (A)
}

// SpectralLoss is the SAPM airmass modifier F1. An undefined airmass gives no
// spectral response.
func SpectralLoss(airmassAbsolute float64, m ModuleParameters) float64 {
	if math.IsNaN(airmassAbsolute) || airmassAbsolute <= 0 {
		return 0
	}
	am := airmassAbsolute
	f1 := m.A0 + m.A1*am + m.A2*am*am + m.A3*am*am*am + m.A4*am*am*am*am
	return math.Max(f1, 0)
}

// IAM is the SAPM incidence angle modifier F2 for an angle of incidence in
// degrees. Light arriving from behind the module is not collected.
func IAM(aoi float64, m ModuleParameters) float64 {
	if math.IsNaN(aoi) || aoi < 0 || aoi > 90 {
		return 0
	}
	f2 := m.B0 + aoi*(m.B1+aoi*(m.B2+aoi*(m.B3+aoi*(m.B4+aoi*m.B5))))
	return math.Max(f2, 0)
}

// EffectiveIrradiance returns the irradiance (W/m²) the cells convert after
// spectral and angular losses: F1 * (Eb*F2 + FD*Ed)
func EffectiveIrradiance(poaDirect, poaDiffuse, airmassAbsolute, aoi float64, m ModuleParameters) float64 {
	f1 := SpectralLoss(airmassAbsolute, m)
	f2 := IAM(aoi, m)
	return math.Max(f1*(poaDirect*f2+m.FD*poaDiffuse), 0)
}

// SAPM evaluates the Sandia model for effective irradiance (W/m²) and cell
// temperature (°C). Without effective irradiance the module is dark and every
// output is 0.
func SAPM(effectiveIrradiance, tempCell float64, m ModuleParameters) Point {
	if math.IsNaN(effectiveIrradiance) || effectiveIrradiance <= 0 {
		return Point{}
	}

	ee := effectiveIrradiance / referenceIrradiance
	dT := tempCell - referenceTemp

	bvmpo := m.Bvmpo + m.Mbvmp*(1-ee)
	bvoco := m.Bvoco + m.Mbvoc*(1-ee)
	delta := m.N * boltzmann * (tempCell + 273.15) / elementaryCharge
	logEe := math.Log(ee)
	ns := m.CellsInSeries

	p := Point{}
	p.Isc = math.Max(m.Isco*ee*(1+m.Aisc*dT), 0)
	p.Imp = math.Max(m.Impo*(m.C0*ee+m.C1*ee*ee)*(1+m.Aimp*dT), 0)
	p.Voc = math.Max(m.Voco+ns*delta*logEe+bvoco*dT, 0)
	p.Vmp = math.Max(m.Vmpo+m.C2*ns*delta*logEe+m.C3*ns*(delta*logEe)*(delta*logEe)+bvmpo*dT, 0)
	p.Vmp = math.Min(p.Vmp, p.Voc)
	p.Pmp = p.Imp * p.Vmp
	p.Ix = math.Max(m.IXO*(m.C4*ee+m.C5*ee*ee)*(1+m.Aisc*dT), 0)
	// King 2004 mixes up Aisc and Aimp in the Ixx equation; Aisc is correct
	p.Ixx = math.Max(m.IXXO*(m.C6*ee+m.C7*ee*ee)*(1+m.Aisc*dT), 0)

	return p
}
