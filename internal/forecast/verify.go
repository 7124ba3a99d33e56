package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const additivityTolerance = 1e-6

var errNotAligned = errors.New("series is not aligned with the index")

type column struct {
	stage       string
	field       string
	values      []float64
	nonNegative bool
}

// verify rejects any output that is misaligned, not finite, negative where
// the quantity cannot be, or breaks the plane-of-array additivity
func (r *Result) verify() error {
	n := len(r.Index)
	columns := []column{
		{StagePOA, "poa_global", r.POA.Global, true},
		{StagePOA, "poa_direct", r.POA.Direct, true},
		{StagePOA, "poa_diffuse", r.POA.Diffuse, true},
		{StagePOA, "poa_sky_diffuse", r.POA.SkyDiffuse, true},
		{StagePOA, "poa_ground_diffuse", r.POA.GroundDiffuse, true},
		{StageTemperature, "temp_cell", r.CellTemperature, false},
		{StageDC, "i_sc", r.DC.Isc, true},
		{StageDC, "i_mp", r.DC.Imp, true},
		{StageDC, "v_oc", r.DC.Voc, true},
		{StageDC, "v_mp", r.DC.Vmp, true},
		{StageDC, "p_mp", r.DC.Pmp, true},
		{StageAC, "p_ac", r.AC.Power, true},
	}

	for _, c := range columns {
		if len(c.values) != n {
			return stageError(c.stage, c.field, ErrComputation, fmt.Errorf("%w: %d rows, index has %d", errNotAligned, len(c.values), n))
		}
		for i, v := range c.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return stageError(c.stage, c.field, ErrComputation, fmt.Errorf("non-finite value at %s", r.Index[i].Format(time.RFC3339)))
			}
			if c.nonNegative && v < 0 {
				return stageError(c.stage, c.field, ErrComputation, fmt.Errorf("negative value %g at %s", v, r.Index[i].Format(time.RFC3339)))
			}
		}
	}

	for i := range r.Index {
		p := r.POA
		if !closeRel(p.Global[i], p.Direct[i]+p.Diffuse[i]) {
			return stageError(StagePOA, "poa_global", ErrComputation, fmt.Errorf("global %g != direct + diffuse %g at %s",
				p.Global[i], p.Direct[i]+p.Diffuse[i], r.Index[i].Format(time.RFC3339)))
		}
		if !closeRel(p.Diffuse[i], p.SkyDiffuse[i]+p.GroundDiffuse[i]) {
			return stageError(StagePOA, "poa_diffuse", ErrComputation, fmt.Errorf("diffuse %g != sky + ground %g at %s",
				p.Diffuse[i], p.SkyDiffuse[i]+p.GroundDiffuse[i], r.Index[i].Format(time.RFC3339)))
		}
		if r.DC.Vmp[i] > r.DC.Voc[i] {
			return stageError(StageDC, "v_mp", ErrComputation, fmt.Errorf("v_mp %g exceeds v_oc %g at %s",
				r.DC.Vmp[i], r.DC.Voc[i], r.Index[i].Format(time.RFC3339)))
		}
		if r.AC.Power[i] > r.Inverter.Paco {
			return stageError(StageAC, "p_ac", ErrComputation, fmt.Errorf("p_ac %g exceeds Paco %g at %s",
				r.AC.Power[i], r.Inverter.Paco, r.Index[i].Format(time.RFC3339)))
		}
	}

	return nil
}

func closeRel(a, b float64) bool {
	return math.Abs(a-b) <= additivityTolerance*math.Max(math.Max(math.Abs(a), math.Abs(b)), 1)
}
