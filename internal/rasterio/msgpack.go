package rasterio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/schema"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	msgpackMagic   = "PHENOMASK"
	msgpackVersion = 1

	kindStack = "stack"
	kindMask  = "mask"
)

// envelope is the on-disk layout of a msgpack raster. Samples are float32
// in [t][y][x] order; a mask has a single slice.
type envelope struct {
	Magic        string    `msgpack:"magic"`
	Version      int       `msgpack:"version"`
	Kind         string    `msgpack:"kind"`
	Width        int       `msgpack:"width"`
	Height       int       `msgpack:"height"`
	Slices       int       `msgpack:"slices"`
	Projection   string    `msgpack:"projection"`
	GeoTransform []float64 `msgpack:"geotransform"`
	Data         []float32 `msgpack:"data"`
}

// MsgpackCodec stores a whole raster as one msgpack document.
type MsgpackCodec struct{}

var _ Codec = MsgpackCodec{}

func (MsgpackCodec) Name() schema.RasterFormat { return schema.MsgpackFormat }

func (MsgpackCodec) Extensions() []string { return []string{".mpk", ".msgpack"} }

func (c MsgpackCodec) ReadStack(ctx context.Context, path string) (*pheno.Stack, error) {
	env, err := c.read(ctx, path, kindStack)
	if err != nil {
		return nil, err
	}
	total, err := pheno.CheckShape(env.Width, env.Height, env.Slices)
	if err != nil {
		return nil, decodeErr(path, err)
	}
	plane := env.Width * env.Height
	if len(env.Data) != total {
		return nil, decodeErr(path, fmt.Errorf("%d samples do not fill %dx%dx%d", len(env.Data), env.Slices, env.Height, env.Width))
	}

	slices := make([][]float64, env.Slices)
	for t := range slices {
		slices[t] = widen(env.Data[t*plane : (t+1)*plane])
	}
	stack, err := pheno.NewStack(env.Width, env.Height, slices, env.spatialRef())
	if err != nil {
		return nil, decodeErr(path, err)
	}
	return stack, nil
}

func (c MsgpackCodec) WriteStack(ctx context.Context, path string, stack *pheno.Stack) error {
	data := make([]float32, 0, stack.Width()*stack.Height()*stack.TimeSlices())
	for t := range stack.TimeSlices() {
		data = append(data, narrow(stack.Slice(t))...)
	}
	return c.write(ctx, path, newEnvelope(kindStack, stack.Width(), stack.Height(), stack.TimeSlices(), stack.SpatialRef(), data))
}

func (c MsgpackCodec) ReadMask(ctx context.Context, path string) (*pheno.Mask, error) {
	env, err := c.read(ctx, path, kindMask)
	if err != nil {
		return nil, err
	}
	mask, err := pheno.NewMaskFromCells(env.Width, env.Height, env.Data, env.spatialRef())
	if err != nil {
		return nil, decodeErr(path, err)
	}
	return mask, nil
}

func (c MsgpackCodec) WriteMask(ctx context.Context, path string, mask *pheno.Mask) error {
	return c.write(ctx, path, newEnvelope(kindMask, mask.Width(), mask.Height(), 1, mask.SpatialRef(), mask.Cells()))
}

func (MsgpackCodec) read(ctx context.Context, path, kind string) (*envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, decodeErr(path, err)
	}
	defer func() { _ = f.Close() }()

	var env envelope
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&env); err != nil {
		return nil, decodeErr(path, fmt.Errorf("malformed msgpack raster: %w", err))
	}
	if env.Magic != msgpackMagic {
		return nil, decodeErr(path, errors.New("not a phenomask msgpack raster"))
	}
	if env.Version != msgpackVersion {
		return nil, decodeErr(path, fmt.Errorf("unsupported version %d", env.Version))
	}
	if env.Kind != kind {
		return nil, decodeErr(path, fmt.Errorf("file holds a %s, expected a %s", env.Kind, kind))
	}
	if len(env.GeoTransform) != 0 && len(env.GeoTransform) != 6 {
		return nil, decodeErr(path, fmt.Errorf("geotransform has %d coefficients", len(env.GeoTransform)))
	}
	return &env, nil
}

func (MsgpackCodec) write(ctx context.Context, path string, env *envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := msgpack.NewEncoder(w).Encode(env); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func newEnvelope(kind string, width, height, slices int, ref pheno.SpatialRef, data []float32) *envelope {
	return &envelope{
		Magic:        msgpackMagic,
		Version:      msgpackVersion,
		Kind:         kind,
		Width:        width,
		Height:       height,
		Slices:       slices,
		Projection:   ref.Projection,
		GeoTransform: ref.GeoTransform[:],
		Data:         data,
	}
}

func (e *envelope) spatialRef() pheno.SpatialRef {
	ref := pheno.SpatialRef{Projection: e.Projection}
	copy(ref.GeoTransform[:], e.GeoTransform)
	return ref
}

// widen converts file samples to the classifier's float64.
func widen(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func narrow(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
