//go:build gdal

// Package gdal reads and writes GeoTIFF rasters through GDAL. Importing it
// registers the codec with rasterio.
package gdal

import (
	"context"
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/rasterio"
	"github.com/huangsam/phenomask/schema"
)

func init() {
	godal.RegisterAll()
	rasterio.Register(Codec{})
}

// Codec maps band i+1 of a GeoTIFF to time slice i. Masks are written as a
// single Float32 band carrying the source projection and geotransform.
type Codec struct{}

var _ rasterio.Codec = Codec{}

func (Codec) Name() schema.RasterFormat { return schema.GDALFormat }

func (Codec) Extensions() []string { return []string{".tif", ".tiff"} }

func (Codec) ReadStack(ctx context.Context, path string) (*pheno.Stack, error) {
	ds, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, &pheno.DecodeError{Source: path, Err: fmt.Errorf("raster has no bands")}
	}

	slices := make([][]float64, len(bands))
	buf := make([]float32, st.SizeX*st.SizeY)
	for t, band := range bands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := band.Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
			return nil, &pheno.DecodeError{Source: path, Err: fmt.Errorf("read band %d: %w", t+1, err)}
		}
		slice := make([]float64, len(buf))
		for i, v := range buf {
			slice[i] = float64(v)
		}
		slices[t] = slice
	}

	stack, err := pheno.NewStack(st.SizeX, st.SizeY, slices, spatialRef(ds))
	if err != nil {
		return nil, &pheno.DecodeError{Source: path, Err: err}
	}
	return stack, nil
}

func (Codec) WriteStack(ctx context.Context, path string, stack *pheno.Stack) error {
	bands := make([][]float32, stack.TimeSlices())
	for t := range bands {
		bands[t] = toFloat32(stack.Slice(t))
	}
	return create(ctx, path, stack.Width(), stack.Height(), stack.SpatialRef(), bands)
}

func (Codec) ReadMask(ctx context.Context, path string) (*pheno.Mask, error) {
	ds, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	bands := ds.Bands()
	if len(bands) != 1 {
		return nil, &pheno.DecodeError{Source: path, Err: fmt.Errorf("mask has %d bands, expected 1", len(bands))}
	}
	cells := make([]float32, st.SizeX*st.SizeY)
	if err := bands[0].Read(0, 0, cells, st.SizeX, st.SizeY); err != nil {
		return nil, &pheno.DecodeError{Source: path, Err: err}
	}
	mask, err := pheno.NewMaskFromCells(st.SizeX, st.SizeY, cells, spatialRef(ds))
	if err != nil {
		return nil, &pheno.DecodeError{Source: path, Err: err}
	}
	return mask, nil
}

func (Codec) WriteMask(ctx context.Context, path string, mask *pheno.Mask) error {
	return create(ctx, path, mask.Width(), mask.Height(), mask.SpatialRef(), [][]float32{mask.Cells()})
}

func open(ctx context.Context, path string) (*godal.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := godal.Open(path)
	if err != nil {
		return nil, &pheno.DecodeError{Source: path, Err: err}
	}
	return ds, nil
}

// spatialRef reads projection and geotransform. A raster without a
// geotransform keeps the zero value.
func spatialRef(ds *godal.Dataset) pheno.SpatialRef {
	ref := pheno.SpatialRef{Projection: ds.Projection()}
	if gt, err := ds.GeoTransform(); err == nil {
		ref.GeoTransform = gt
	}
	return ref
}

func create(ctx context.Context, path string, width, height int, ref pheno.SpatialRef, bands [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds, err := godal.Create(godal.GTiff, path, len(bands), godal.Float32, width, height)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if ref.Projection != "" {
		if err := ds.SetProjection(ref.Projection); err != nil {
			_ = ds.Close()
			return fmt.Errorf("failed to set projection: %w", err)
		}
	}
	if ref.GeoTransform != ([6]float64{}) {
		if err := ds.SetGeoTransform(ref.GeoTransform); err != nil {
			_ = ds.Close()
			return fmt.Errorf("failed to set geotransform: %w", err)
		}
	}
	for i, band := range ds.Bands() {
		if err := band.Write(0, 0, bands[i], width, height); err != nil {
			_ = ds.Close()
			return fmt.Errorf("failed to write band %d: %w", i+1, err)
		}
	}
	return ds.Close()
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
