package cmd

import (
	"github.com/huangsam/phenomask/core"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/spf13/cobra"
)

// inspectCmd describes a stack slice by slice.
var inspectCmd = &cobra.Command{
	Use:   "inspect [stack]",
	Short: "Show dimensions, georeferencing and per-slice statistics of a stack",
	Long: `Print the size and spatial reference of a stack, then min, mean, max and
NaN count for every time slice, labelled with the phase window it falls in
under the current --start-slice, --peak-start and --peak-end.

Use this to check a window layout before classifying.

Examples:
  phenomask inspect season.mpk
  phenomask inspect season.parquet --peak-start 6 --peak-end 14 --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteInspect(rootCtx, cfg); err != nil {
			contract.LogFatal("Inspection failed", err)
		}
	},
}
