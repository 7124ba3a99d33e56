package managers

import (
	"errors"
	"fmt"
	"os"

	"github.com/chrissnell/pvforecast/internal/equipment"
	"github.com/chrissnell/pvforecast/pkg/config"
	"go.uber.org/zap"
)

// EquipmentManager owns the equipment databases named in the configuration
type EquipmentManager struct {
	// Database resolves lookups against the SQLite store, then the SAM
	// files, then the built-in catalog
	Database equipment.Database
	Store    *equipment.SQLiteStore
	Files    *equipment.Catalog
}

// NewEquipmentManager opens every configured equipment source
func NewEquipmentManager(c config.EquipmentData, logger *zap.SugaredLogger) (*EquipmentManager, error) {
	m := &EquipmentManager{}
	var dbs []equipment.Database

	if c.SQLitePath != "" {
		logger.Infof("opening equipment database %s...", c.SQLitePath)
		store, err := equipment.OpenSQLiteStore(c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("could not open equipment database: %w", err)
		}
		m.Store = store
		dbs = append(dbs, store)
	}

	if len(c.ModuleFiles) > 0 || len(c.InverterFiles) > 0 {
		files, err := loadSAMFiles(c)
		if err != nil {
			m.Close()
			return nil, err
		}
		logger.Infow("loaded SAM libraries", "modules", len(files.Modules()), "inverters", len(files.Inverters()))
		m.Files = files
		dbs = append(dbs, files)
	}

	if !c.DisableBuiltin {
		dbs = append(dbs, equipment.Builtin())
	}

	if len(dbs) == 0 {
		return nil, errors.New("no equipment database configured and the built-in catalog is disabled")
	}

	m.Database = equipment.Chain(dbs...)
	return m, nil
}

// Import copies the SAM file libraries into the SQLite store
func (m *EquipmentManager) Import() (modules, inverters int, err error) {
	if m.Store == nil {
		return 0, 0, errors.New("equipment.sqlite-path is not configured")
	}
	if m.Files == nil {
		return 0, 0, errors.New("no SAM library files are configured")
	}
	return m.Store.Import(m.Files)
}

// Close releases the SQLite store
func (m *EquipmentManager) Close() error {
	if m.Store == nil {
		return nil
	}
	return m.Store.Close()
}

func loadSAMFiles(c config.EquipmentData) (*equipment.Catalog, error) {
	catalog := equipment.NewCatalog()

	for _, f := range c.ModuleFiles {
		if err := readFile(f.Path, func(fh *os.File) error { return catalog.ReadSAMModules(fh, f.Library) }); err != nil {
			return nil, fmt.Errorf("could not load module library %s: %w", f.Path, err)
		}
	}
	for _, f := range c.InverterFiles {
		if err := readFile(f.Path, func(fh *os.File) error { return catalog.ReadSAMInverters(fh, f.Library) }); err != nil {
			return nil, fmt.Errorf("could not load inverter library %s: %w", f.Path, err)
		}
	}

	return catalog, nil
}

func readFile(path string, read func(*os.File) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return read(fh)
}
