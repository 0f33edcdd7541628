// Package cmd defines the command-line interface for phenomask.
package cmd

import (
	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "auto", "Enable colored labels in output (auto/yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().Float64("min-index", pheno.DefaultMinIndex, "Ceiling for the early and late windows")
	rootCmd.PersistentFlags().Float64("max-index", pheno.DefaultMaxIndex, "Floor for the peak window")
	rootCmd.PersistentFlags().Int("start-slice", pheno.DefaultStartSlice, "First slice of the early window")
	rootCmd.PersistentFlags().Int("peak-start", pheno.DefaultPeakStart, "First slice of the peak window")
	rootCmd.PersistentFlags().Int("peak-end", pheno.DefaultPeakEnd, "Slice after the last one of the peak window")
	rootCmd.PersistentFlags().String("input-format", "", "Stack format: msgpack or parquet or gdal (default by extension)")
	rootCmd.PersistentFlags().String("output-format", "", "Written raster format: msgpack or parquet or gdal (default by extension)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of classifyCmd to Viper
	classifyCmd.Flags().StringP("out", "o", "", "Mask path (default <stack>_Mask<ext>)")
	classifyCmd.Flags().String("preview", "", "Optional path for an 8-bit TIFF preview of the mask")
	classifyCmd.Flags().Int("band-rows", contract.DefaultBandRows, "Rows per work unit")
	if err := viper.BindPFlags(classifyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding classify flags", err)
	}

	// Bind all flags of synthCmd to Viper
	synthCmd.Flags().Int("width", contract.DefaultSynthWidth, "Stack width in pixels")
	synthCmd.Flags().Int("height", contract.DefaultSynthHeight, "Stack height in pixels")
	synthCmd.Flags().Int("slices", contract.DefaultSynthSlices, "Number of time slices")
	synthCmd.Flags().Float64("match-fraction", contract.DefaultMatchFraction, "Share of pixels that follow the phase pattern")
	synthCmd.Flags().Uint64("seed", contract.DefaultSeed, "Random seed")
	if err := viper.BindPFlags(synthCmd.Flags()); err != nil {
		contract.LogFatal("Error binding synth flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
