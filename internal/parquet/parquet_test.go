package parquet

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/phenomask/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []schema.RunRecord {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	duration := int32(1500)
	output := "/data/t37_Mask.msgpack"
	params := `{"min_index":0.5}`
	failure := "decode error"

	return []schema.RunRecord{
		{
			RunID: 1, StartTime: start, EndTime: &end, RunDurationMs: &duration,
			State: string(schema.RunSucceeded), InputPath: "/data/t37.msgpack", OutputPath: &output,
			Width: 256, Height: 128, TimeSlices: 23, PositivePixels: 812, ConfigParams: &params,
		},
		{
			RunID: 2, StartTime: start.Add(time.Hour), State: string(schema.RunFailed),
			InputPath: "/data/broken.msgpack", ErrorMessage: &failure,
		},
	}
}

func TestRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(Run))
	require.NotNil(t, s)

	expectedColumns := []string{
		"run_id", "start_time", "end_time", "run_duration_ms", "state", "input_path", "output_path",
		"width", "height", "time_slices", "positive_pixels", "config_params", "error_message",
	}
	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestConvertRunRecords(t *testing.T) {
	records := sampleRecords()
	runs := ConvertRunRecords(records)

	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].RunID)
	assert.Equal(t, int64(812), runs[0].PositivePixels)
	assert.Equal(t, records[0].OutputPath, runs[0].OutputPath)
	assert.Nil(t, runs[1].EndTime)
	assert.Equal(t, "decode error", *runs[1].ErrorMessage)

	assert.Empty(t, ConvertRunRecords(nil))
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := ConvertRunRecords(sampleRecords())

	require.NoError(t, WriteRunsParquet(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[Run](file)
	defer func() { _ = reader.Close() }()
	assert.Equal(t, int64(2), reader.NumRows())

	rows := make([]Run, 2)
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)

	assert.Equal(t, data[0].InputPath, rows[0].InputPath)
	assert.Equal(t, *data[0].RunDurationMs, *rows[0].RunDurationMs)
	assert.True(t, data[0].StartTime.Equal(rows[0].StartTime))
	assert.Equal(t, string(schema.RunFailed), rows[1].State)
	assert.Nil(t, rows[1].OutputPath)
}

func TestWriteRunsParquetBadPath(t *testing.T) {
	err := WriteRunsParquet(nil, filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.Error(t, err)
}
