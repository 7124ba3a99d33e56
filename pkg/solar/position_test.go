package solar

import (
	"math"
	"testing"
	"time"
)

func TestCalculatePositionSolarNoon(t *testing.T) {
	// Golden, CO near solar noon on the June solstice: zenith ≈ latitude - 23.44
	ts := time.Date(2024, 6, 21, 19, 2, 0, 0, time.UTC)
	pos := CalculatePosition(ts, 39.7423, -105.1785)

	if math.Abs(pos.Zenith-16.30) > 0.5 {
		t.Errorf("zenith=%.3f, expected ~16.30", pos.Zenith)
	}
	if math.Abs(pos.Azimuth-180) > 10 {
		t.Errorf("azimuth=%.3f, expected close to due south", pos.Azimuth)
	}
	if pos.ApparentZenith > pos.Zenith {
		t.Errorf("refraction must lift the sun: apparent zenith %.4f > zenith %.4f", pos.ApparentZenith, pos.Zenith)
	}
}

func TestCalculatePositionEquinoxEquator(t *testing.T) {
	// Sun passes almost through the zenith at the equator on the equinox
	ts := time.Date(2024, 3, 20, 12, 7, 0, 0, time.UTC)
	pos := CalculatePosition(ts, 0, 0)
	if pos.Zenith > 1.5 {
		t.Errorf("zenith=%.3f, expected near 0", pos.Zenith)
	}
}

func TestCalculatePositionMorningAfternoon(t *testing.T) {
	day := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	morning := CalculatePosition(day.Add(15*time.Hour), 39.7423, -105.1785)   // 9 AM MDT
	afternoon := CalculatePosition(day.Add(23*time.Hour), 39.7423, -105.1785) // 5 PM MDT

	if morning.Azimuth <= 90 || morning.Azimuth >= 180 {
		t.Errorf("morning azimuth=%.2f, expected in the south-east quadrant", morning.Azimuth)
	}
	if afternoon.Azimuth <= 180 || afternoon.Azimuth >= 290 {
		t.Errorf("afternoon azimuth=%.2f, expected in the south-west quadrant", afternoon.Azimuth)
	}
}

func TestCalculatePositionNight(t *testing.T) {
	// Local midnight in Colorado
	ts := time.Date(2024, 6, 21, 6, 0, 0, 0, time.UTC)
	pos := CalculatePosition(ts, 39.7423, -105.1785)

	for name, v := range map[string]float64{
		"zenith":          pos.Zenith,
		"apparent zenith": pos.ApparentZenith,
		"azimuth":         pos.Azimuth,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
	}
	if pos.Zenith <= 90 {
		t.Errorf("zenith=%.2f, expected the sun below the horizon", pos.Zenith)
	}
	if pos.ApparentZenith != pos.Zenith {
		t.Errorf("no refraction expected below the horizon: %.4f vs %.4f", pos.ApparentZenith, pos.Zenith)
	}
	if pos.Azimuth < 0 || pos.Azimuth >= 360 {
		t.Errorf("azimuth=%.2f out of [0, 360)", pos.Azimuth)
	}
}

func TestRelativeAirmass(t *testing.T) {
	tests := []struct {
		zenith   float64
		expected float64
		epsilon  float64
	}{
		{0, 1.0, 0.002},
		{60, 1.994, 0.01},
		{85, 10.3, 0.3},
		{90, 0, 0},
		{120, 0, 0},
		{math.NaN(), 0, 0},
	}

	for _, tt := range tests {
		got := RelativeAirmass(tt.zenith)
		if math.Abs(got-tt.expected) > tt.epsilon {
			t.Errorf("RelativeAirmass(%v)=%.4f, expected %.4f", tt.zenith, got, tt.expected)
		}
		if got < 0 {
			t.Errorf("RelativeAirmass(%v) is negative", tt.zenith)
		}
	}
}

func TestAbsoluteAirmass(t *testing.T) {
	if p := AltitudeToPressure(0); math.Abs(p-101325) > 50 {
		t.Errorf("sea level pressure=%.1f, expected ~101325", p)
	}
	golden := AltitudeToPressure(1829)
	if golden >= 101325 || golden < 80000 {
		t.Errorf("pressure at 1829 m=%.1f, expected ~81000", golden)
	}
	if am := AbsoluteAirmass(2.0, golden); am >= 2.0 {
		t.Errorf("absolute airmass at altitude should be below relative, got %.3f", am)
	}
}

func TestExtraRadiation(t *testing.T) {
	jan := ExtraRadiation(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	jul := ExtraRadiation(time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC))

	if jan < 1405 || jan > 1420 {
		t.Errorf("perihelion irradiance=%.1f, expected ~1413", jan)
	}
	if jul < 1315 || jul > 1325 {
		t.Errorf("aphelion irradiance=%.1f, expected ~1321", jul)
	}
}

func TestClearSkyIrradiance(t *testing.T) {
	noon := ClearSkyIrradiance(time.Date(2024, 6, 21, 19, 0, 0, 0, time.UTC), 39.7423, -105.1785, 1829)
	night := ClearSkyIrradiance(time.Date(2024, 6, 21, 7, 0, 0, 0, time.UTC), 39.7423, -105.1785, 1829)

	if noon.GHI < 700 || noon.GHI > 1300 {
		t.Errorf("clear-sky noon GHI=%.1f out of plausible range", noon.GHI)
	}
	if noon.DNI <= 0 || noon.DHI <= 0 {
		t.Errorf("expected positive beam and diffuse, got %+v", noon)
	}
	if night != (ClearSky{}) {
		t.Errorf("expected zero irradiance at night, got %+v", night)
	}

	overcast := noon.CloudAttenuated(100, 0.35)
	if overcast.DNI != 0 {
		t.Errorf("overcast DNI=%.2f, expected 0", overcast.DNI)
	}
	if math.Abs(overcast.GHI-0.35*noon.GHI) > 1e-6 {
		t.Errorf("overcast GHI=%.2f, expected %.2f", overcast.GHI, 0.35*noon.GHI)
	}
	if clear := noon.CloudAttenuated(0, 0.35); math.Abs(clear.GHI-noon.GHI) > 1e-6 {
		t.Errorf("cloudless attenuation changed GHI: %.3f vs %.3f", clear.GHI, noon.GHI)
	}
}
