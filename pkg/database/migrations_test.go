package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0644))
}

func TestRunMigrationsAppliesInOrder(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	// Named out of order on disk; versions decide the order.
	writeMigration(t, dir, "002_add_note.sql", "ALTER TABLE things ADD COLUMN note TEXT;")
	writeMigration(t, dir, "001_create_things.sql", "CREATE TABLE things (id INTEGER PRIMARY KEY, note_less TEXT);")

	m := NewMigrator(db, zap.NewNop())
	require.NoError(t, m.RunMigrations(dir))

	_, err := db.Exec("INSERT INTO things (note) VALUES ('ok')")
	assert.NoError(t, err)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	writeMigration(t, dir, "001_create_things.sql", "CREATE TABLE things (id INTEGER PRIMARY KEY);")

	m := NewMigrator(db, zap.NewNop())
	require.NoError(t, m.RunMigrations(dir))
	require.NoError(t, m.RunMigrations(dir), "applied versions are skipped on rerun")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRunMigrationsRejectsBadFilename(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	writeMigration(t, dir, "initial.sql", "CREATE TABLE things (id INTEGER PRIMARY KEY);")

	m := NewMigrator(db, zap.NewNop())
	assert.Error(t, m.RunMigrations(dir))
}
