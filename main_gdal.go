//go:build gdal

package main

// GeoTIFF support needs the GDAL C library, so it is opt-in via -tags gdal.
import _ "github.com/huangsam/phenomask/internal/rasterio/gdal"
