package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "budget.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var tableName string

	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='budgets'").Scan(&tableName)
	assert.NoError(t, err)
	assert.Equal(t, "budgets", tableName)

	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='items'").Scan(&tableName)
	assert.NoError(t, err)
	assert.Equal(t, "items", tableName)
}

func TestOpenTwiceIsNoChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, second.Close()) })

	var version int
	err = second.QueryRow("SELECT version FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestForeignKeysEnabled(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	_, err = db.Exec(`INSERT INTO items (id, budget_id, name, category, quantity, updated_at, created_at)
		VALUES ('i1', 'missing', 'x', 'beer', 1, CURRENT_TIMESTAMP, 0)`)
	assert.Error(t, err)
}
