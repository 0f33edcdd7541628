package rasterio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

var testRef = pheno.SpatialRef{
	Projection:   `PROJCS["WGS 84 / UTM zone 37N"]`,
	GeoTransform: [6]float64{500000, 10, 0, 6000000, 0, -10},
}

// sampleStack builds a 3x2 stack of 4 slices with exactly representable values.
func sampleStack(t *testing.T) *pheno.Stack {
	t.Helper()
	slices := make([][]float64, 4)
	for ti := range slices {
		slices[ti] = make([]float64, 6)
		for i := range slices[ti] {
			slices[ti][i] = float64(ti*6+i) / 32
		}
	}
	slices[2][4] = math.NaN()
	stack, err := pheno.NewStack(3, 2, slices, testRef)
	require.NoError(t, err)
	return stack
}

func sampleMask(t *testing.T) *pheno.Mask {
	t.Helper()
	mask, err := pheno.NewMaskFromCells(3, 2, []float32{0, 1, 0, 1, 1, 0}, testRef)
	require.NoError(t, err)
	return mask
}

func assertSameStack(t *testing.T, want, got *pheno.Stack) {
	t.Helper()
	require.Equal(t, want.Width(), got.Width())
	require.Equal(t, want.Height(), got.Height())
	require.Equal(t, want.TimeSlices(), got.TimeSlices())
	assert.Equal(t, want.SpatialRef(), got.SpatialRef())
	for ti := range want.TimeSlices() {
		for y := range want.Height() {
			for x := range want.Width() {
				w, g := want.At(ti, y, x), got.At(ti, y, x)
				if math.IsNaN(w) {
					assert.True(t, math.IsNaN(g), "sample (%d,%d,%d)", ti, y, x)
					continue
				}
				assert.Equal(t, w, g, "sample (%d,%d,%d)", ti, y, x)
			}
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, codec := range []Codec{MsgpackCodec{}, ParquetCodec{}} {
		t.Run(string(codec.Name()), func(t *testing.T) {
			dir := t.TempDir()
			stackPath := filepath.Join(dir, "stack"+codec.Extensions()[0])

			stack := sampleStack(t)
			require.NoError(t, codec.WriteStack(ctx, stackPath, stack))
			got, err := codec.ReadStack(ctx, stackPath)
			require.NoError(t, err)
			assertSameStack(t, stack, got)

			mask := sampleMask(t)
			maskPath := MaskPath(stackPath, codec)
			require.NoError(t, codec.WriteMask(ctx, maskPath, mask))
			back, err := codec.ReadMask(ctx, maskPath)
			require.NoError(t, err)
			assert.Equal(t, mask.Cells(), back.Cells())
			assert.Equal(t, testRef, back.SpatialRef())
		})
	}
}

func TestReadErrorsAreDecodeErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a raster"), 0o644))

	maskOnly := filepath.Join(dir, "mask.mpk")
	require.NoError(t, MsgpackCodec{}.WriteMask(ctx, maskOnly, sampleMask(t)))

	parquetMask := filepath.Join(dir, "mask.parquet")
	require.NoError(t, ParquetCodec{}.WriteMask(ctx, parquetMask, sampleMask(t)))

	// Headers whose dimensions overflow or disagree with the stored samples
	overflowing := filepath.Join(dir, "overflow.mpk")
	require.NoError(t, MsgpackCodec{}.write(ctx, overflowing,
		newEnvelope(kindStack, math.MaxInt/4+1, 8, 20, testRef, nil)))

	emptyHuge := filepath.Join(dir, "empty_huge.mpk")
	require.NoError(t, MsgpackCodec{}.write(ctx, emptyHuge,
		newEnvelope(kindStack, 1<<16, 1<<16, 20, testRef, nil)))

	oneRow := func(w *parquet.GenericWriter[PixelRow]) error {
		_, err := w.Write([]PixelRow{{Row: 0, Col: 0, Values: []float32{0.1, 0.2, 0.3}}})
		return err
	}
	parquetTooFewRows := filepath.Join(dir, "few_rows.parquet")
	require.NoError(t, writeParquet(ctx, parquetTooFewRows, kindStack, 1<<20, 1<<20, 3, testRef, oneRow))

	parquetOverflow := filepath.Join(dir, "overflow.parquet")
	require.NoError(t, writeParquet(ctx, parquetOverflow, kindStack, math.MaxInt/4+1, 8, 3, testRef, oneRow))

	parquetHugeSlices := filepath.Join(dir, "huge_slices.parquet")
	require.NoError(t, writeParquet(ctx, parquetHugeSlices, kindStack, 1, 1, math.MaxInt/2, testRef, oneRow))

	tests := []struct {
		name  string
		codec Codec
		path  string
	}{
		{"msgpack overflowing dimensions", MsgpackCodec{}, overflowing},
		{"msgpack dimensions without samples", MsgpackCodec{}, emptyHuge},
		{"parquet fewer rows than pixels", ParquetCodec{}, parquetTooFewRows},
		{"parquet overflowing dimensions", ParquetCodec{}, parquetOverflow},
		{"parquet slice count beyond samples", ParquetCodec{}, parquetHugeSlices},
		{"msgpack missing file", MsgpackCodec{}, filepath.Join(dir, "missing.mpk")},
		{"msgpack garbage", MsgpackCodec{}, garbage},
		{"msgpack mask read as stack", MsgpackCodec{}, maskOnly},
		{"parquet missing file", ParquetCodec{}, filepath.Join(dir, "missing.parquet")},
		{"parquet garbage", ParquetCodec{}, garbage},
		{"parquet mask read as stack", ParquetCodec{}, parquetMask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := tt.codec.ReadStack(ctx, tt.path)
			assert.Nil(t, stack)

			var decErr *pheno.DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, tt.path, decErr.Source)
		})
	}
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MsgpackCodec{}.ReadStack(ctx, "whatever.mpk")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		override schema.RasterFormat
		expected schema.RasterFormat
		wantErr  bool
	}{
		{"msgpack extension", "a/b/stack.mpk", "", schema.MsgpackFormat, false},
		{"long msgpack extension", "stack.MSGPACK", "", schema.MsgpackFormat, false},
		{"parquet extension", "stack.parquet", "", schema.ParquetFormat, false},
		{"override wins", "stack.bin", schema.ParquetFormat, schema.ParquetFormat, false},
		{"unknown extension", "stack.nc", "", "", true},
		{"no extension", "stack", "", "", true},
		{"unknown override", "stack.mpk", "netcdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := ForPath(tt.path, tt.override)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, codec.Name())
		})
	}
}

func TestMaskPath(t *testing.T) {
	assert.Equal(t, "data/ndvi_Mask.mpk", MaskPath("data/ndvi.mpk", MsgpackCodec{}))
	assert.Equal(t, "data/ndvi_Mask.parquet", MaskPath("data/ndvi.mpk", ParquetCodec{}))
	assert.Equal(t, "ndvi_Mask.MPK", MaskPath("ndvi.MPK", MsgpackCodec{}))
	assert.Equal(t, "ndvi_Mask.tif", MaskPath("ndvi.tif", nil))
}

func TestFormats(t *testing.T) {
	formats := Formats()
	assert.Contains(t, formats, schema.MsgpackFormat)
	assert.Contains(t, formats, schema.ParquetFormat)
}

func TestWritePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.tif")
	require.NoError(t, WritePreview(path, sampleMask(t)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	img, err := tiff.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	r, _, _, _ := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
}
