// Package csvexport writes forecast series as CSV files, one file per
// pipeline output, each keyed by timestamp in its first column.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chrissnell/pvforecast/internal/forecast"
	"go.uber.org/zap"
)

// Output file names
const (
	POAFile         = "poa_irrad.csv"
	TemperatureFile = "pvtemp.csv"
	DCFile          = "dc_out.csv"
	ACFile          = "ac_out.csv"
)

// Table is one CSV output: a header and one column slice per header entry
// after the timestamp
type Table struct {
	File    string
	Header  []string
	Columns [][]float64
}

// Tables lays out the four pipeline outputs of res
func Tables(res *forecast.Result) []Table {
	return []Table{
		{
			File:   POAFile,
			Header: []string{"timestamp", "poa_global", "poa_direct", "poa_diffuse", "poa_sky_diffuse", "poa_ground_diffuse"},
			Columns: [][]float64{
				res.POA.Global, res.POA.Direct, res.POA.Diffuse, res.POA.SkyDiffuse, res.POA.GroundDiffuse,
			},
		},
		{
			File:    TemperatureFile,
			Header:  []string{"timestamp", "temp_cell"},
			Columns: [][]float64{res.CellTemperature},
		},
		{
			File:   DCFile,
			Header: []string{"timestamp", "i_sc", "i_mp", "v_oc", "v_mp", "p_mp", "i_x", "i_xx"},
			Columns: [][]float64{
				res.DC.Isc, res.DC.Imp, res.DC.Voc, res.DC.Vmp, res.DC.Pmp, res.DC.Ix, res.DC.Ixx,
			},
		},
		ACTable(res),
	}
}

// ACTable is the AC output alone
func ACTable(res *forecast.Result) Table {
	return Table{
		File:    ACFile,
		Header:  []string{"timestamp", "p_ac"},
		Columns: [][]float64{res.AC.Power},
	}
}

// WriteTable writes one table against index
func WriteTable(w io.Writer, index []time.Time, t Table) error {
	for _, c := range t.Columns {
		if len(c) != len(index) {
			return fmt.Errorf("%s: column has %d rows, index has %d", t.File, len(c), len(index))
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}

	record := make([]string, len(t.Columns)+1)
	for i, ts := range index {
		record[0] = ts.Format(time.RFC3339)
		for j, c := range t.Columns {
			record[j+1] = strconv.FormatFloat(c[i], 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Exporter writes every forecast into a directory, replacing the previous
// files
type Exporter struct {
	dir    string
	logger *zap.SugaredLogger
}

// New creates an exporter writing into dir
func New(dir string, logger *zap.SugaredLogger) *Exporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Exporter{dir: dir, logger: logger}
}

// Name implements storage.Backend
func (e *Exporter) Name() string {
	return "csv"
}

// StoreForecast implements storage.Backend
func (e *Exporter) StoreForecast(ctx context.Context, res *forecast.Result) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	for _, t := range Tables(res) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.writeFile(res, t); err != nil {
			return err
		}
	}

	e.logger.Infow("wrote forecast CSVs", "dir", e.dir, "rows", len(res.Index))
	return nil
}

// writeFile writes through a temp file so readers never see a partial table
func (e *Exporter) writeFile(res *forecast.Result, t Table) error {
	tmp, err := os.CreateTemp(e.dir, "."+t.File+".*")
	if err != nil {
		return fmt.Errorf("could not create %s: %w", t.File, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTable(tmp, res.Index, t); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %s: %w", t.File, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", t.File, err)
	}

	return os.Rename(tmp.Name(), filepath.Join(e.dir, t.File))
}
