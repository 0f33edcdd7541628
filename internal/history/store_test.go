package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/phenomask/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *RunStoreImpl {
	t.Helper()
	store, err := NewRunStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*RunStoreImpl)
}

func TestRunStoreLifecycle(t *testing.T) {
	store := newSQLiteStore(t)
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	okID, err := store.BeginRun(start, "/data/tile.msgpack", map[string]any{"min_index": 0.5})
	require.NoError(t, err)
	assert.Positive(t, okID)

	failID, err := store.BeginRun(start.Add(time.Minute), "/data/broken.msgpack", nil)
	require.NoError(t, err)
	assert.Greater(t, failID, okID)

	require.NoError(t, store.EndRun(okID, start.Add(2*time.Second), schema.RunOutcome{
		State:          schema.RunSucceeded,
		OutputPath:     "/data/tile_Mask.msgpack",
		Width:          10,
		Height:         20,
		TimeSlices:     23,
		PositivePixels: 37,
	}))
	require.NoError(t, store.EndRun(failID, start.Add(time.Minute+time.Second), schema.RunOutcome{
		State: schema.RunFailed,
		Error: "decode error",
	}))

	records, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, records, 2)

	ok := records[0]
	assert.Equal(t, okID, ok.RunID)
	assert.True(t, start.Equal(ok.StartTime))
	require.NotNil(t, ok.EndTime)
	require.NotNil(t, ok.RunDurationMs)
	assert.Equal(t, int32(2000), *ok.RunDurationMs)
	assert.Equal(t, string(schema.RunSucceeded), ok.State)
	require.NotNil(t, ok.OutputPath)
	assert.Equal(t, "/data/tile_Mask.msgpack", *ok.OutputPath)
	assert.Equal(t, int32(23), ok.TimeSlices)
	assert.Equal(t, int64(37), ok.PositivePixels)
	require.NotNil(t, ok.ConfigParams)
	assert.JSONEq(t, `{"min_index":0.5}`, *ok.ConfigParams)
	assert.Nil(t, ok.ErrorMessage)

	failed := records[1]
	assert.Equal(t, string(schema.RunFailed), failed.State)
	assert.Nil(t, failed.OutputPath)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "decode error", *failed.ErrorMessage)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, 1, status.FailedRuns)
	assert.Equal(t, failID, status.LastRunID)
	assert.True(t, start.Add(time.Minute).Equal(status.LastRunTime))
	assert.True(t, start.Equal(status.OldestRunTime))
	assert.Equal(t, int64(200), status.TotalPixels)
	assert.Equal(t, int64(37), status.TotalPositive)
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
}

func TestRunStoreRunningRun(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.BeginRun(time.Now(), "/data/tile.msgpack", nil)
	require.NoError(t, err)

	records, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(schema.RunRunning), records[0].State)
	assert.Nil(t, records[0].EndTime)
	assert.Nil(t, records[0].RunDurationMs)
}

func TestRunStoreEmptyStatus(t *testing.T) {
	store := newSQLiteStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalRuns)
	assert.True(t, status.LastRunTime.IsZero())
}

func TestRunStoreEndUnknownRun(t *testing.T) {
	store := newSQLiteStore(t)
	err := store.EndRun(42, time.Now(), schema.RunOutcome{})
	assert.Error(t, err)
}

func TestNoneBackendStore(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginRun(time.Now(), "x", nil)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.EndRun(id, time.Now(), schema.RunOutcome{}))

	records, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Nil(t, records)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewRunStoreUnsupported(t *testing.T) {
	_, err := NewRunStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestSQLHelpers(t *testing.T) {
	assert.Equal(t, "`phenomask_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"phenomask_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"phenomask_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))

	assert.Equal(t, "a = $1 AND b = $2", rebind("a = ? AND b = ?", schema.PostgreSQLBackend))
	assert.Equal(t, "a = ? AND b = ?", rebind("a = ? AND b = ?", schema.MySQLBackend))

	assert.NoError(t, validateTableName(runsTable))
	assert.Error(t, validateTableName(""))
	assert.Error(t, validateTableName("runs; DROP TABLE x"))
	assert.Error(t, validateTableName("1runs"))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 6, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-01-02T02:04:05.000000006Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts, formatTime(ts, schema.MySQLBackend))
}

func TestMySQLDSNParsesTime(t *testing.T) {
	for _, connStr := range []string{
		"phenomask:secret@tcp(localhost:3306)/runs",
		"phenomask:secret@tcp(localhost:3306)/runs?parseTime=false&charset=utf8mb4",
	} {
		dsn, err := mysqlDSN(connStr)
		require.NoError(t, err)

		cfg, err := mysql.ParseDSN(dsn)
		require.NoError(t, err)
		assert.True(t, cfg.ParseTime, dsn)
		assert.Equal(t, "runs", cfg.DBName)
		assert.Equal(t, "localhost:3306", cfg.Addr)
	}

	_, err := mysqlDSN("localhost:3306")
	assert.Error(t, err)

	_, _, err = openDB(schema.MySQLBackend, "localhost:3306")
	assert.ErrorContains(t, err, "invalid MySQL connection string")
}
