package cmd

import (
	"github.com/huangsam/phenomask/core"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/spf13/cobra"
)

// classifyCmd marks the pixels of a stack that follow the phase pattern.
var classifyCmd = &cobra.Command{
	Use:   "classify [stack]",
	Short: "Write a binary mask of pixels that follow the seasonal phase pattern",
	Long: `Read a time-ordered NDVI stack and write a mask with the same width,
height and georeferencing. A pixel is 1 when all three hold:

- the early window max is below --min-index
- the peak window max is above --max-index
- the late window max is below --min-index

Windows are [start-slice, peak-start-1), [peak-start, peak-end) and
[peak-end+1, slices). Slices peak-start-1 and peak-end are ignored.
An empty window, or one holding NaN, fails its condition.

Every run is recorded in the run history unless --history-backend none.

Examples:
  # Classify with the reference pattern
  phenomask classify season.mpk

  # Custom windows and a GeoTIFF mask (built with -tags gdal)
  phenomask classify season.tif --peak-start 6 --peak-end 14 --out mask.tif

  # JSON summary plus a preview image
  phenomask classify season.parquet --preview mask.tiff --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClassify(rootCtx, cfg, historyManager); err != nil {
			contract.LogFatal("Classification failed", err)
		}
	},
}
