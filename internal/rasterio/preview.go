package rasterio

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/huangsam/phenomask/core/pheno"
	"golang.org/x/image/tiff"
)

// WritePreview writes the mask as an 8-bit grayscale TIFF where positive
// cells are white. The preview carries no georeferencing.
func WritePreview(path string, mask *pheno.Mask) error {
	img := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for y := range mask.Height() {
		for x := range mask.Width() {
			if mask.At(y, x) == 1 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return f.Close()
}
