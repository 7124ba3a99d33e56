package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"001_create_runs.up.sql":     {Data: []byte(`CREATE TABLE runs (id TEXT PRIMARY KEY);`)},
	"001_create_runs.down.sql":   {Data: []byte(`DROP TABLE runs;`)},
	"002_add_model.up.sql":       {Data: []byte(`ALTER TABLE runs ADD COLUMN model TEXT;`)},
	"002_add_model.down.sql":     {Data: []byte(`ALTER TABLE runs DROP COLUMN model;`)},
	"003_create_points.up.sql":   {Data: []byte(`CREATE TABLE points (run_id TEXT, p_ac REAL);`)},
	"003_create_points.down.sql": {Data: []byte(`DROP TABLE points;`)},
	"README.md":                  {Data: []byte("not a migration")},
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestFSProviderMigrations(t *testing.T) {
	p := NewFSProvider(testMigrations, "", "")

	migrations, err := p.Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	byVersion := map[int]Migration{}
	for _, m := range migrations {
		byVersion[m.Version] = m
	}
	assert.Equal(t, "add model", byVersion[2].Name)
	assert.Contains(t, byVersion[2].Up, "ADD COLUMN model")
	assert.Contains(t, byVersion[2].Down, "DROP COLUMN model")
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "schema_migrations", DriverSQLite), nil)

	pending, err := m.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	require.NoError(t, m.MigrateUp())

	v, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.True(t, tableExists(t, db, "points"))

	pending, err = m.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Running again is a no-op
	require.NoError(t, m.MigrateUp())

	require.NoError(t, m.MigrateTo(1))
	v, err = m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, tableExists(t, db, "points"))
	assert.True(t, tableExists(t, db, "runs"))

	require.NoError(t, m.MigrateDown(0))
	v, err = m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.False(t, tableExists(t, db, "runs"))
}

func TestMigrateDownRejectsHigherTarget(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "", DriverSQLite), nil)
	require.NoError(t, m.MigrateTo(2))

	assert.Error(t, m.MigrateDown(2))
	assert.Error(t, m.MigrateDown(3))
}

func TestFailedMigrationRollsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"001_ok.up.sql":     {Data: []byte(`CREATE TABLE a (x INTEGER);`)},
		"002_broken.up.sql": {Data: []byte(`CREATE TABLE b (x INTEGER); NOT VALID SQL;`)},
	}
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(fsys, "", DriverSQLite), nil)

	err := m.MigrateUp()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2")

	v, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, tableExists(t, db, "a"))
	assert.False(t, tableExists(t, db, "b"))
}

func TestMissingDownMigration(t *testing.T) {
	fsys := fstest.MapFS{
		"001_only_up.up.sql": {Data: []byte(`CREATE TABLE a (x INTEGER);`)},
	}
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(fsys, "", DriverSQLite), nil)
	require.NoError(t, m.MigrateUp())

	err := m.MigrateDown(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no down SQL")
}
