package equipment

import (
	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/pvsystem"
)

// Sandia module database entry for the Canadian Solar CS5P-220M
var canadianSolarCS5P = pvsystem.ModuleParameters{
	Name: "Canadian Solar CS5P-220M [ 2009]", Vintage: "2009", Area: 1.701, Material: "c-Si",
	CellsInSeries: 96, ParallelStrings: 1,
	Isco: 5.09115, Voco: 59.2608, Impo: 4.54629, Vmpo: 48.3156, Aisc: 0.000397, Aimp: 0.000181,
	C0: 1.01284, C1: -0.0128398, Bvoco: -0.21696, Mbvoc: 0, Bvmpo: -0.235488, Mbvmp: 0,
	N: 1.4032, C2: 0.279317, C3: -7.24463,
	A0: 0.928385, A1: 0.068093, A2: -0.0157738, A3: 0.0016606, A4: -0.0000693,
	B0: 1, B1: -0.002438, B2: 0.0003103, B3: -0.00001246, B4: 2.11e-07, B5: -1.36e-09,
	DTC: 3, FD: 1, A: -3.40641, B: -0.0842075,
	C4: 0.996446, C5: 0.003554, IXO: 4.97599, IXXO: 3.18803, C6: 1.15535, C7: -0.155353,
}

// SAM Sandia inverter database entry for the ABB MICRO-0.25 at 208V
var abbMicro025 = inverter.Parameters{
	Name: "ABB: MICRO-0.25-I-OUTD-US-208 [208V]",
	Vac:  208, Pso: 2.089607, Paco: 250, Pdco: 259.588593, Vdco: 40,
	C0: -0.000041, C1: -0.000091, C2: 0.000494, C3: -0.013171,
	Pnt: 0.075, Vdcmax: 50, Idcmax: 6.489715, MpptLow: 30, MpptHigh: 50,
}

// Builtin returns a catalog with the reference module and inverter
func Builtin() *Catalog {
	c := NewCatalog()
	c.AddModule(SandiaModules, canadianSolarCS5P)
	c.AddInverter(SandiaInverters, abbMicro025)
	return c
}
