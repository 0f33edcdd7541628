package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/history"
	"github.com/huangsam/phenomask/internal/rasterio"
	"github.com/huangsam/phenomask/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetClassifyResultWithoutHistory(t *testing.T) {
	input, expected := writeSynthStack(t, "tile.msgpack")
	cfg := testConfig(input)

	summary, err := GetClassifyResult(context.Background(), cfg, nil)
	require.NoError(t, err)

	wantOutput := filepath.Join(filepath.Dir(input), "tile_Mask.msgpack")
	assert.Equal(t, wantOutput, summary.OutputPath)
	assert.Equal(t, schema.MsgpackFormat, summary.InputFormat)
	assert.Equal(t, schema.MsgpackFormat, summary.OutputFormat)
	assert.Equal(t, 12, summary.Width)
	assert.Equal(t, 9, summary.Height)
	assert.Equal(t, 20, summary.TimeSlices)
	assert.Equal(t, 108, summary.Pixels)
	assert.Equal(t, expected, summary.PositivePixels)
	assert.InDelta(t, float64(expected)/108, summary.PositiveFraction, 1e-12)
	assert.Equal(t, pheno.Window{Start: 4, End: 18}, summary.Windows.Peak)
	assert.Zero(t, summary.RunID)

	mask, err := rasterio.MsgpackCodec{}.ReadMask(context.Background(), wantOutput)
	require.NoError(t, err)
	assert.Equal(t, expected, mask.Positive())
	assert.Equal(t, 12, mask.Width())
}

func TestGetClassifyResultRecordsRun(t *testing.T) {
	input, expected := writeSynthStack(t, "tile.msgpack")
	cfg := testConfig(input)
	cfg.OutputFormat = schema.ParquetFormat
	cfg.PreviewPath = filepath.Join(t.TempDir(), "preview.tif")

	store := &history.MockRunStore{}
	mgr := &history.MockHistoryManager{}
	mgr.On("GetRunStore").Return(store)
	store.On("BeginRun", mock.AnythingOfType("time.Time"), input, mock.Anything).Return(int64(5), nil)
	store.On("EndRun", int64(5), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(o schema.RunOutcome) bool {
		return o.State == schema.RunSucceeded && o.PositivePixels == expected && o.TimeSlices == 20 && o.Error == ""
	})).Return(nil)

	summary, err := GetClassifyResult(context.Background(), cfg, mgr)
	require.NoError(t, err)

	assert.Equal(t, int64(5), summary.RunID)
	assert.Equal(t, schema.ParquetFormat, summary.OutputFormat)
	assert.Equal(t, filepath.Join(filepath.Dir(input), "tile_Mask.parquet"), summary.OutputPath)
	assert.True(t, fileExists(t, summary.OutputPath))
	assert.True(t, fileExists(t, cfg.PreviewPath))

	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestGetClassifyResultRecordsFailure(t *testing.T) {
	input := filepath.Join(t.TempDir(), "missing.msgpack")
	cfg := testConfig(input)

	store := &history.MockRunStore{}
	mgr := &history.MockHistoryManager{}
	mgr.On("GetRunStore").Return(store)
	store.On("BeginRun", mock.Anything, input, mock.Anything).Return(int64(9), nil)
	store.On("EndRun", int64(9), mock.Anything, mock.MatchedBy(func(o schema.RunOutcome) bool {
		return o.State == schema.RunFailed && o.Error != "" && o.OutputPath == ""
	})).Return(nil)

	_, err := GetClassifyResult(context.Background(), cfg, mgr)
	var decErr *pheno.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, input, decErr.Source)

	store.AssertExpectations(t)
}

func TestGetClassifyResultConfigurationError(t *testing.T) {
	input, _ := writeSynthStack(t, "tile.msgpack")
	cfg := testConfig(input)
	cfg.Phase.PeakEnd = 20 // stack has 20 slices

	_, err := GetClassifyResult(context.Background(), cfg, nil)
	var cfgErr *pheno.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "peak_end", cfgErr.Field)
	assert.False(t, fileExists(t, rasterio.MaskPath(input, rasterio.MsgpackCodec{})))
}

func TestGetClassifyResultTrackingFailureIsNotFatal(t *testing.T) {
	input, _ := writeSynthStack(t, "tile.msgpack")
	cfg := testConfig(input)

	store := &history.MockRunStore{}
	mgr := &history.MockHistoryManager{}
	mgr.On("GetRunStore").Return(store)
	store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

	summary, err := GetClassifyResult(context.Background(), cfg, mgr)
	require.NoError(t, err)
	assert.Zero(t, summary.RunID)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetClassifyResultCancelled(t *testing.T) {
	input, _ := writeSynthStack(t, "tile.msgpack")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetClassifyResult(ctx, testConfig(input), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveCodecs(t *testing.T) {
	cfg := testConfig("/data/tile.msgpack")

	in, out, path, err := resolveCodecs(cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.MsgpackFormat, in.Name())
	assert.Equal(t, schema.MsgpackFormat, out.Name())
	assert.Equal(t, "/data/tile_Mask.msgpack", path)

	cfg.OutputPath = "/out/mask.parquet"
	_, out, path, err = resolveCodecs(cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.ParquetFormat, out.Name())
	assert.Equal(t, "/out/mask.parquet", path)

	cfg.OutputPath = cfg.InputPath
	_, _, _, err = resolveCodecs(cfg)
	assert.ErrorContains(t, err, "overwrite")

	cfg = testConfig("/data/tile.unknown")
	_, _, _, err = resolveCodecs(cfg)
	assert.Error(t, err)
}

func TestNewProgressLogger(t *testing.T) {
	progress := newProgressLogger(100)
	// Must be safe with repeated and out-of-order calls
	for _, done := range []int{5, 10, 10, 55, 40, 100} {
		progress(done, 100)
	}
	progress(0, 0)
}

func TestRunParams(t *testing.T) {
	cfg := testConfig("/data/tile.msgpack")
	params := runParams(cfg, schema.ClassifySummary{InputFormat: schema.MsgpackFormat, OutputPath: "/data/tile_Mask.msgpack", StartedAt: time.Now()})
	assert.Equal(t, 0.5, params["min_index"])
	assert.Equal(t, 18, params["peak_end"])
	assert.Equal(t, "msgpack", params["input_format"])
	assert.Equal(t, "/data/tile_Mask.msgpack", params["output_path"])
}
