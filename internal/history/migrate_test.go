package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/phenomask/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateNoneBackend(t *testing.T) {
	_, err := Migrate(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestMigrateSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	result, err := Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(0), result.FromVersion)
	assert.Equal(t, uint(2), result.ToVersion)
	assert.Contains(t, result.String(), "from version 0 to version 2")

	result, err = Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Contains(t, result.String(), "already at version 2")

	// The migrated schema serves the store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	id, err := store.BeginRun(time.Now(), "/data/tile.msgpack", nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(id, time.Now(), schema.RunOutcome{State: schema.RunSucceeded}))
	require.NoError(t, store.Close())

	result, err = Migrate(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), result.FromVersion)
	assert.Equal(t, uint(1), result.ToVersion)

	result, err = Migrate(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(0), result.ToVersion)
}

func TestMigrationsEmbeddedPerBackend(t *testing.T) {
	for _, backend := range []string{"sqlite", "mysql", "postgresql"} {
		entries, err := migrationsFS.ReadDir("migrations/" + backend)
		require.NoError(t, err, backend)
		assert.Len(t, entries, 4, backend)
	}
}
