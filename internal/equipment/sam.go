package equipment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/pvsystem"
)

// SAM library files carry a units row and a variable-name row after the
// header
const samMetadataRows = 2

func moduleColumns(m *pvsystem.ModuleParameters) map[string]*float64 {
	return map[string]*float64{
		"area": &m.Area, "cells_in_series": &m.CellsInSeries, "parallel_strings": &m.ParallelStrings,
		"isco": &m.Isco, "voco": &m.Voco, "impo": &m.Impo, "vmpo": &m.Vmpo, "aisc": &m.Aisc, "aimp": &m.Aimp,
		"c0": &m.C0, "c1": &m.C1, "bvoco": &m.Bvoco, "mbvoc": &m.Mbvoc, "bvmpo": &m.Bvmpo, "mbvmp": &m.Mbvmp,
		"n": &m.N, "c2": &m.C2, "c3": &m.C3,
		"a0": &m.A0, "a1": &m.A1, "a2": &m.A2, "a3": &m.A3, "a4": &m.A4,
		"b0": &m.B0, "b1": &m.B1, "b2": &m.B2, "b3": &m.B3, "b4": &m.B4, "b5": &m.B5,
		"dtc": &m.DTC, "fd": &m.FD, "a": &m.A, "b": &m.B,
		"c4": &m.C4, "c5": &m.C5, "ixo": &m.IXO, "ixxo": &m.IXXO, "c6": &m.C6, "c7": &m.C7,
	}
}

func inverterColumns(p *inverter.Parameters) map[string]*float64 {
	return map[string]*float64{
		"vac": &p.Vac, "pso": &p.Pso, "paco": &p.Paco, "pdco": &p.Pdco, "vdco": &p.Vdco,
		"c0": &p.C0, "c1": &p.C1, "c2": &p.C2, "c3": &p.C3, "pnt": &p.Pnt,
		"vdcmax": &p.Vdcmax, "idcmax": &p.Idcmax, "mppt_low": &p.MpptLow, "mppt_high": &p.MpptHigh,
	}
}

type samReader struct {
	r      *csv.Reader
	header []string
	line   int
}

func newSAMReader(r io.Reader) (*samReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading SAM header: %w", err)
	}
	// SAM spells some columns with spaces ("Cells in Series")
	for i := range header {
		header[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header[i])), " ", "_")
	}
	if header[0] != "name" {
		return nil, fmt.Errorf("SAM file must start with a Name column, got %q", header[0])
	}

	for i := 0; i < samMetadataRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("error reading SAM metadata row %d: %w", i+1, err)
		}
	}
	return &samReader{r: cr, header: header, line: 1 + samMetadataRows}, nil
}

// next decodes one row into the string fields and numeric columns. It
// returns io.EOF at the end of the file.
func (s *samReader) next(strs map[string]*string, nums map[string]*float64) error {
	record, err := s.r.Read()
	if err != nil {
		return err
	}
	s.line++

	for i, value := range record {
		if i >= len(s.header) {
			break
		}
		col := s.header[i]
		value = strings.TrimSpace(value)
		if p, ok := strs[col]; ok {
			*p = value
			continue
		}
		p, ok := nums[col]
		if !ok || value == "" {
			continue
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("line %d: column %s: %w", s.line, col, err)
		}
		*p = f
	}
	return nil
}

// LoadSAMModules reads a SAM module library CSV into a new catalog
func LoadSAMModules(r io.Reader, library string) (*Catalog, error) {
	c := NewCatalog()
	if err := c.ReadSAMModules(r, library); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadSAMInverters reads a SAM inverter library CSV into a new catalog
func LoadSAMInverters(r io.Reader, library string) (*Catalog, error) {
	c := NewCatalog()
	if err := c.ReadSAMInverters(r, library); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadSAMModules adds every module in a SAM library CSV to the catalog
func (c *Catalog) ReadSAMModules(r io.Reader, library string) error {
	sr, err := newSAMReader(r)
	if err != nil {
		return err
	}
	for {
		var m pvsystem.ModuleParameters
		strs := map[string]*string{"name": &m.Name, "vintage": &m.Vintage, "material": &m.Material}
		err := sr.next(strs, moduleColumns(&m))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", library, err)
		}
		if m.Name == "" {
			continue
		}
		c.AddModule(library, m)
	}
}

// ReadSAMInverters adds every inverter in a SAM library CSV to the catalog
func (c *Catalog) ReadSAMInverters(r io.Reader, library string) error {
	sr, err := newSAMReader(r)
	if err != nil {
		return err
	}
	for {
		var p inverter.Parameters
		err := sr.next(map[string]*string{"name": &p.Name}, inverterColumns(&p))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", library, err)
		}
		if p.Name == "" {
			continue
		}
		c.AddInverter(library, p)
	}
}
