package equipment

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/chrissnell/pvforecast/internal/log"
	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/migrate"
	"github.com/chrissnell/pvforecast/pkg/pvsystem"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is a persistent equipment Database. Parameter sets are stored
// as JSON keyed by canonical library and normalised name.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLiteStore opens (creating if needed) the equipment database at dbPath
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// CreateSchema applies any pending equipment schema migrations
func (s *SQLiteStore) CreateSchema() error {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	provider := migrate.NewFSProvider(sub, "equipment_migrations", migrate.DriverSQLite)
	if err := migrate.NewMigrator(s.db, provider, log.Component("equipment-migrate")).MigrateUp(); err != nil {
		return fmt.Errorf("failed to create equipment schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsert(ex execer, table string, k Key, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", k, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (library, name, params) VALUES (?, ?, ?)
		ON CONFLICT(library, name) DO UPDATE SET params = excluded.params`, table)
	if _, err := ex.Exec(query, k.Library, k.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store %s: %w", k, err)
	}
	return nil
}

func (s *SQLiteStore) get(table, kind string, k Key, out any) error {
	var data string
	query := fmt.Sprintf(`SELECT params FROM %s WHERE library = ? AND name = ?`, table)
	err := s.db.QueryRow(query, k.Library, k.Name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, k)
	}
	if err != nil {
		return fmt.Errorf("failed to query %s %s: %w", kind, k, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", kind, k, err)
	}
	return nil
}

// PutModule stores or replaces a module
func (s *SQLiteStore) PutModule(library string, m pvsystem.ModuleParameters) error {
	k := NewKey(library, m.Name)
	m.Name = k.Name
	return upsert(s.db, "modules", k, m)
}

// PutInverter stores or replaces an inverter
func (s *SQLiteStore) PutInverter(library string, p inverter.Parameters) error {
	k := NewKey(library, p.Name)
	p.Name = k.Name
	return upsert(s.db, "inverters", k, p)
}

func (s *SQLiteStore) LookupModule(library, name string) (pvsystem.ModuleParameters, error) {
	var m pvsystem.ModuleParameters
	if err := s.get("modules", "module", NewKey(library, name), &m); err != nil {
		return pvsystem.ModuleParameters{}, err
	}
	return m, nil
}

func (s *SQLiteStore) LookupInverter(library, name string) (inverter.Parameters, error) {
	var p inverter.Parameters
	if err := s.get("inverters", "inverter", NewKey(library, name), &p); err != nil {
		return inverter.Parameters{}, err
	}
	return p, nil
}

// ListModules returns the module names stored for a library, sorted
func (s *SQLiteStore) ListModules(library string) ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM modules WHERE library = ? ORDER BY name`, CanonicalLibrary(library))
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Import copies every entry of a catalog into the store in one transaction
func (s *SQLiteStore) Import(c *Catalog) (modules, inverters int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range c.Modules() {
		m, _ := c.LookupModule(k.Library, k.Name)
		if err := upsert(tx, "modules", k, m); err != nil {
			return 0, 0, err
		}
		modules++
	}
	for _, k := range c.Inverters() {
		p, _ := c.LookupInverter(k.Library, k.Name)
		if err := upsert(tx, "inverters", k, p); err != nil {
			return 0, 0, err
		}
		inverters++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return modules, inverters, nil
}

var _ Database = (*SQLiteStore)(nil)
