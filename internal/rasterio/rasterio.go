// Package rasterio decodes temporal stacks and encodes classification masks.
//
// Each file format is a Codec registered by name. The msgpack and parquet
// codecs are always available; the GeoTIFF codec lives in the gdal
// subpackage and registers itself when the binary is built with -tags gdal.
package rasterio

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/schema"
)

// Codec reads and writes one raster file format.
type Codec interface {
	Name() schema.RasterFormat
	// Extensions lists the lower-case file extensions, including the dot.
	// The first one is used when deriving output paths.
	Extensions() []string
	ReadStack(ctx context.Context, path string) (*pheno.Stack, error)
	WriteStack(ctx context.Context, path string, stack *pheno.Stack) error
	ReadMask(ctx context.Context, path string) (*pheno.Mask, error)
	WriteMask(ctx context.Context, path string, mask *pheno.Mask) error
}

var (
	registryMu sync.RWMutex
	registry   = map[schema.RasterFormat]Codec{}
)

func init() {
	Register(MsgpackCodec{})
	Register(ParquetCodec{})
}

// Register makes a codec available by name, replacing any previous one.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name()] = c
}

// Formats returns the registered format names in sorted order.
func Formats() []schema.RasterFormat {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]schema.RasterFormat, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the codec registered under format.
func Lookup(format schema.RasterFormat) (Codec, error) {
	registryMu.RLock()
	c, ok := registry[format]
	registryMu.RUnlock()
	if ok {
		return c, nil
	}
	if format == schema.GDALFormat {
		return nil, fmt.Errorf("format %s is not available in this build (rebuild with -tags gdal)", format)
	}
	return nil, fmt.Errorf("unknown raster format %q (available: %v)", format, Formats())
}

// ForPath picks a codec for path. A non-empty override wins over the extension.
func ForPath(path string, override schema.RasterFormat) (Codec, error) {
	if override != "" {
		return Lookup(override)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, fmt.Errorf("cannot infer raster format of %q without an extension", path)
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, c := range registry {
		if slices.Contains(c.Extensions(), ext) {
			return c, nil
		}
	}
	if ext == ".tif" || ext == ".tiff" {
		return nil, fmt.Errorf("GeoTIFF %q needs a build with -tags gdal", path)
	}
	return nil, fmt.Errorf("no raster codec handles %q extension of %q", ext, path)
}

// MaskPath derives the default mask path: the input name with a _Mask suffix,
// keeping the extension when the output codec accepts it.
func MaskPath(input string, out Codec) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if out != nil && !slices.Contains(out.Extensions(), strings.ToLower(ext)) {
		ext = out.Extensions()[0]
	}
	return base + "_Mask" + ext
}

func decodeErr(path string, err error) error {
	return &pheno.DecodeError{Source: path, Err: err}
}
