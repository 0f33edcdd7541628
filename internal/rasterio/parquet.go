package rasterio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/schema"
	"github.com/parquet-go/parquet-go"
)

// File key-value metadata written by ParquetCodec.
const (
	metaKind         = "phenomask.kind"
	metaWidth        = "phenomask.width"
	metaHeight       = "phenomask.height"
	metaSlices       = "phenomask.slices"
	metaProjection   = "phenomask.projection"
	metaGeoTransform = "phenomask.geotransform"
)

// PixelRow holds the full time series of one stack pixel.
type PixelRow struct {
	Row    int32     `parquet:"row,delta"`
	Col    int32     `parquet:"col,delta"`
	Values []float32 `parquet:"values,snappy"`
}

// MaskRow holds one mask cell.
type MaskRow struct {
	Row   int32   `parquet:"row,delta"`
	Col   int32   `parquet:"col,delta"`
	Value float32 `parquet:"value,snappy"`
}

// ParquetCodec stores rasters as one row per pixel, which makes stacks easy
// to query from dataframe tools. Dimensions and georeferencing travel in the
// file's key-value metadata.
type ParquetCodec struct{}

var _ Codec = ParquetCodec{}

func (ParquetCodec) Name() schema.RasterFormat { return schema.ParquetFormat }

func (ParquetCodec) Extensions() []string { return []string{".parquet"} }

func (ParquetCodec) ReadStack(ctx context.Context, path string) (*pheno.Stack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, rows, err := readParquet[PixelRow](path, kindStack)
	if err != nil {
		return nil, err
	}

	// Every row carries the full series before buffers are sized from metadata
	for _, r := range rows {
		if len(r.Values) != meta.slices {
			return nil, decodeErr(path, fmt.Errorf("pixel (%d,%d) has %d samples, expected %d", r.Row, r.Col, len(r.Values), meta.slices))
		}
	}

	plane := meta.width * meta.height
	slices := make([][]float64, meta.slices)
	for t := range slices {
		slices[t] = make([]float64, plane)
	}
	seen := make([]bool, plane)
	for _, r := range rows {
		idx, err := meta.index(r.Row, r.Col)
		if err != nil {
			return nil, decodeErr(path, err)
		}
		seen[idx] = true
		for t, v := range r.Values {
			slices[t][idx] = float64(v)
		}
	}
	if err := meta.checkCoverage(seen); err != nil {
		return nil, decodeErr(path, err)
	}

	stack, err := pheno.NewStack(meta.width, meta.height, slices, meta.ref)
	if err != nil {
		return nil, decodeErr(path, err)
	}
	return stack, nil
}

func (ParquetCodec) WriteStack(ctx context.Context, path string, stack *pheno.Stack) error {
	return writeParquet(ctx, path, kindStack, stack.Width(), stack.Height(), stack.TimeSlices(), stack.SpatialRef(),
		func(w *parquet.GenericWriter[PixelRow]) error {
			buf := make([]PixelRow, stack.Width())
			var series []float64
			for y := range stack.Height() {
				if err := ctx.Err(); err != nil {
					return err
				}
				for x := range buf {
					series = stack.Series(y, x, series)
					buf[x] = PixelRow{Row: int32(y), Col: int32(x), Values: narrow(series)}
				}
				if _, err := w.Write(buf); err != nil {
					return err
				}
			}
			return nil
		})
}

func (ParquetCodec) ReadMask(ctx context.Context, path string) (*pheno.Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, rows, err := readParquet[MaskRow](path, kindMask)
	if err != nil {
		return nil, err
	}

	cells := make([]float32, meta.width*meta.height)
	seen := make([]bool, len(cells))
	for _, r := range rows {
		idx, err := meta.index(r.Row, r.Col)
		if err != nil {
			return nil, decodeErr(path, err)
		}
		seen[idx] = true
		cells[idx] = r.Value
	}
	if err := meta.checkCoverage(seen); err != nil {
		return nil, decodeErr(path, err)
	}

	mask, err := pheno.NewMaskFromCells(meta.width, meta.height, cells, meta.ref)
	if err != nil {
		return nil, decodeErr(path, err)
	}
	return mask, nil
}

func (ParquetCodec) WriteMask(ctx context.Context, path string, mask *pheno.Mask) error {
	return writeParquet(ctx, path, kindMask, mask.Width(), mask.Height(), 1, mask.SpatialRef(),
		func(w *parquet.GenericWriter[MaskRow]) error {
			buf := make([]MaskRow, mask.Width())
			for y := range mask.Height() {
				for x := range buf {
					buf[x] = MaskRow{Row: int32(y), Col: int32(x), Value: mask.At(y, x)}
				}
				if _, err := w.Write(buf); err != nil {
					return err
				}
			}
			return nil
		})
}

// parquetMeta is the decoded key-value metadata of a raster file.
type parquetMeta struct {
	width, height, slices int
	ref                   pheno.SpatialRef
}

func (m parquetMeta) index(row, col int32) (int, error) {
	if row < 0 || int(row) >= m.height || col < 0 || int(col) >= m.width {
		return 0, fmt.Errorf("pixel (%d,%d) lies outside %dx%d", row, col, m.height, m.width)
	}
	return int(row)*m.width + int(col), nil
}

func (m parquetMeta) checkCoverage(seen []bool) error {
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("pixel (%d,%d) is missing", i/m.width, i%m.width)
		}
	}
	return nil
}

func writeParquet[T any](ctx context.Context, path, kind string, width, height, slices int, ref pheno.SpatialRef, fill func(*parquet.GenericWriter[T]) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gt, err := json.Marshal(ref.GeoTransform)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file,
		parquet.KeyValueMetadata(metaKind, kind),
		parquet.KeyValueMetadata(metaWidth, strconv.Itoa(width)),
		parquet.KeyValueMetadata(metaHeight, strconv.Itoa(height)),
		parquet.KeyValueMetadata(metaSlices, strconv.Itoa(slices)),
		parquet.KeyValueMetadata(metaProjection, ref.Projection),
		parquet.KeyValueMetadata(metaGeoTransform, string(gt)),
	)
	if err := fill(writer); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

func readParquet[T any](path, kind string) (parquetMeta, []T, error) {
	var meta parquetMeta

	file, err := os.Open(path)
	if err != nil {
		return meta, nil, decodeErr(path, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return meta, nil, decodeErr(path, err)
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return meta, nil, decodeErr(path, fmt.Errorf("malformed parquet raster: %w", err))
	}

	if got, _ := pf.Lookup(metaKind); got != kind {
		return meta, nil, decodeErr(path, fmt.Errorf("file holds %q, expected a %s", got, kind))
	}
	lookupInt := func(key string) (int, error) {
		v, ok := pf.Lookup(key)
		if !ok {
			return 0, fmt.Errorf("missing %s metadata", key)
		}
		return strconv.Atoi(v)
	}
	if meta.width, err = lookupInt(metaWidth); err != nil {
		return meta, nil, decodeErr(path, err)
	}
	if meta.height, err = lookupInt(metaHeight); err != nil {
		return meta, nil, decodeErr(path, err)
	}
	if meta.slices, err = lookupInt(metaSlices); err != nil {
		return meta, nil, decodeErr(path, err)
	}
	if _, err := pheno.CheckShape(meta.width, meta.height, meta.slices); err != nil {
		return meta, nil, decodeErr(path, err)
	}
	meta.ref.Projection, _ = pf.Lookup(metaProjection)
	if gt, ok := pf.Lookup(metaGeoTransform); ok && gt != "" {
		if err := json.Unmarshal([]byte(gt), &meta.ref.GeoTransform); err != nil {
			return meta, nil, decodeErr(path, fmt.Errorf("bad geotransform metadata: %w", err))
		}
	}

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	// One row per pixel; checked before any buffer is sized from the metadata
	if numRows := reader.NumRows(); numRows != int64(meta.width*meta.height) {
		return meta, nil, decodeErr(path, fmt.Errorf("%d rows do not cover %dx%d pixels", numRows, meta.height, meta.width))
	}

	rows := make([]T, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return meta, nil, decodeErr(path, fmt.Errorf("failed to read rows: %w", err))
		}
		if n == 0 {
			break
		}
	}
	if read != len(rows) {
		return meta, nil, decodeErr(path, fmt.Errorf("file ended after %d of %d rows", read, len(rows)))
	}
	return meta, rows, nil
}
