package pvsystem

import (
	"math"
	"testing"
)

// Canadian Solar CS5P-220M from the Sandia module database
var cs5p = ModuleParameters{
	Name: "Canadian_Solar_CS5P_220M___2009_", Vintage: "2009", Area: 1.701, Material: "c-Si",
	CellsInSeries: 96, ParallelStrings: 1,
	Isco: 5.09115, Voco: 59.2608, Impo: 4.54629, Vmpo: 48.3156, Aisc: 0.000397, Aimp: 0.000181,
	C0: 1.01284, C1: -0.0128398, Bvoco: -0.21696, Mbvoc: 0, Bvmpo: -0.235488, Mbvmp: 0,
	N: 1.4032, C2: 0.279317, C3: -7.24463,
	A0: 0.928385, A1: 0.068093, A2: -0.0157738, A3: 0.0016606, A4: -0.0000693,
	B0: 1, B1: -0.002438, B2: 0.0003103, B3: -0.00001246, B4: 2.11e-07, B5: -1.36e-09,
	DTC: 3, FD: 1, A: -3.40641, B: -0.0842075,
	C4: 0.996446, C5: 0.003554, IXO: 4.97599, IXXO: 3.18803, C6: 1.15535, C7: -0.155353,
}

func TestSAPMReferenceConditions(t *testing.T) {
	p := SAPM(1000, 25, cs5p)

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"isc", p.Isc, cs5p.Isco},
		{"imp", p.Imp, cs5p.Impo},
		{"voc", p.Voc, cs5p.Voco},
		{"vmp", p.Vmp, cs5p.Vmpo},
		{"pmp", p.Pmp, cs5p.RatedPower()},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.expected) > 1e-3*tt.expected {
			t.Errorf("%s=%.5f, expected %.5f", tt.name, tt.got, tt.expected)
		}
	}
}

func TestSAPMDark(t *testing.T) {
	for _, ee := range []float64{0, -5, math.NaN()} {
		if p := SAPM(ee, 10, cs5p); p != (Point{}) {
			t.Errorf("SAPM(%v) = %+v, expected the zero point", ee, p)
		}
	}
}

func TestSAPMInvariants(t *testing.T) {
	for _, ee := range []float64{0.5, 5, 50, 200, 600, 1000, 1200} {
		for _, tc := range []float64{-20, 0, 25, 45, 70} {
			p := SAPM(ee, tc, cs5p)
			if p.Pmp < 0 || math.IsNaN(p.Pmp) {
				t.Errorf("ee=%v tc=%v: pmp=%v", ee, tc, p.Pmp)
			}
			if p.Vmp > p.Voc {
				t.Errorf("ee=%v tc=%v: vmp %.4f > voc %.4f", ee, tc, p.Vmp, p.Voc)
			}
		}
	}
}

func TestSAPMHotterIsWeaker(t *testing.T) {
	cool := SAPM(900, 20, cs5p)
	hot := SAPM(900, 60, cs5p)
	if hot.Pmp >= cool.Pmp {
		t.Errorf("expected lower power at higher cell temperature: %.2f vs %.2f", hot.Pmp, cool.Pmp)
	}
}

func TestSpectralLossAndIAM(t *testing.T) {
	if f1 := SpectralLoss(1.5, cs5p); math.Abs(f1-1.0) > 0.01 {
		t.Errorf("F1 at AM1.5=%.4f, expected ~1", f1)
	}
	if f1 := SpectralLoss(0, cs5p); f1 != 0 {
		t.Errorf("F1 without airmass=%v, expected 0", f1)
	}
	if f2 := IAM(0, cs5p); f2 != 1 {
		t.Errorf("F2 at normal incidence=%v, expected 1", f2)
	}
	if f2 := IAM(95, cs5p); f2 != 0 {
		t.Errorf("F2 behind the module=%v, expected 0", f2)
	}
	if f2 := IAM(70, cs5p); f2 <= 0 || f2 >= 1 {
		t.Errorf("F2 at 70 degrees=%v, expected in (0, 1)", f2)
	}
}

func TestEffectiveIrradiance(t *testing.T) {
	ee := EffectiveIrradiance(800, 150, 1.5, 10, cs5p)
	want := SpectralLoss(1.5, cs5p) * (800*IAM(10, cs5p) + cs5p.FD*150)
	if math.Abs(ee-want) > 1e-9 {
		t.Errorf("effective irradiance=%.6f, expected %.6f", ee, want)
	}
	if ee := EffectiveIrradiance(0, 0, 0, 120, cs5p); ee != 0 {
		t.Errorf("expected 0 effective irradiance at night, got %v", ee)
	}
}

func TestModuleValidate(t *testing.T) {
	if err := cs5p.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := cs5p
	bad.CellsInSeries = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected an error for zero cells in series")
	}
}
