package cmd

import (
	"github.com/huangsam/phenomask/core"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/spf13/cobra"
)

// synthCmd writes a generated stack for demos and benchmarks.
var synthCmd = &cobra.Command{
	Use:   "synth [out]",
	Short: "Generate a synthetic NDVI stack with a known share of matching pixels",
	Long: `Write a reproducible stack where --match-fraction of the pixels follow the
configured phase pattern and the rest fail exactly one of its conditions.
The same --seed always yields the same stack.

Examples:
  phenomask synth demo.mpk
  phenomask synth big.parquet --width 2048 --height 2048 --slices 23 --seed 7`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, cmd, nil); err != nil {
			return err
		}
		cfg.OutputPath = args[0]
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSynth(rootCtx, cfg); err != nil {
			contract.LogFatal("Synthesis failed", err)
		}
	},
}
