package managers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissnell/pvforecast/internal/equipment"
	"github.com/chrissnell/pvforecast/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const inverterCSV = `Name,Vac,Pso,Paco,Pdco,Vdco,C0,C1,C2,C3,Pnt,Vdcmax,Idcmax,Mppt_low,Mppt_high
Units,V,W,W,W,V,1/W,1/V,1/V,1/V,W,V,A,V,V
[0],[1],[2],[3],[4],[5],[6],[7],[8],[9],[10],[11],[12],[13],[14]
Acme: Micro-300 [240V],240,1.5,300,310,38,-3E-05,-8E-05,0.0004,-0.01,0.07,55,8,28,48
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEquipmentManagerChain(t *testing.T) {
	c := config.EquipmentData{
		SQLitePath:    filepath.Join(t.TempDir(), "equipment.db"),
		InverterFiles: []config.SAMFile{{Library: "sandiainverter", Path: writeFile(t, "inverters.csv", inverterCSV)}},
	}

	m, err := NewEquipmentManager(c, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer m.Close()

	inv, err := m.Database.LookupInverter("sandiainverter", "Acme: Micro-300 [240V]")
	require.NoError(t, err)
	assert.Equal(t, 300.0, inv.Paco)

	// Not in the SQLite store or the file, so it comes from the built-in catalog
	_, err = m.Database.LookupModule("SandiaMod", "Canadian_Solar_CS5P_220M___2009_")
	require.NoError(t, err)

	modules, inverters, err := m.Import()
	require.NoError(t, err)
	assert.Equal(t, 0, modules)
	assert.Equal(t, 1, inverters)

	stored, err := m.Store.LookupInverter("SandiaInverter", "Acme__Micro_300__240V_")
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.Paco)
}

func TestEquipmentManagerErrors(t *testing.T) {
	_, err := NewEquipmentManager(config.EquipmentData{DisableBuiltin: true}, zap.NewNop().Sugar())
	assert.Error(t, err)

	_, err = NewEquipmentManager(config.EquipmentData{
		ModuleFiles: []config.SAMFile{{Library: "SandiaMod", Path: filepath.Join(t.TempDir(), "missing.csv")}},
	}, zap.NewNop().Sugar())
	assert.Error(t, err)

	m, err := NewEquipmentManager(config.EquipmentData{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	_, _, err = m.Import()
	assert.Error(t, err)

	_, err = m.Database.LookupModule("SandiaMod", "Nope")
	assert.ErrorIs(t, err, equipment.ErrNotFound)
}

func TestStorageManagerCSVOnly(t *testing.T) {
	s, err := NewStorageManager(context.Background(), config.StorageData{CSVDir: t.TempDir()}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Runs)
	assert.Equal(t, []string{"csv"}, s.Backends())
}
