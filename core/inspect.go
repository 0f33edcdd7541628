package core

import (
	"context"
	"math"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/outwriter"
	"github.com/huangsam/phenomask/internal/rasterio"
	"github.com/huangsam/phenomask/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ExecuteInspect describes the configured stack and prints the report.
func ExecuteInspect(ctx context.Context, cfg *contract.Config) error {
	report, err := GetInspectReport(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteInspect(report, cfg)
}

// GetInspectReport reads cfg.InputPath and summarizes every time slice,
// labelling each with the window of cfg.Phase it falls in.
func GetInspectReport(ctx context.Context, cfg *contract.Config) (schema.InspectReport, error) {
	report := schema.InspectReport{Path: cfg.InputPath, Phase: cfg.Phase}

	codec, err := rasterio.ForPath(cfg.InputPath, cfg.InputFormat)
	if err != nil {
		return report, err
	}
	stack, err := codec.ReadStack(ctx, cfg.InputPath)
	if err != nil {
		return report, err
	}

	ref := stack.SpatialRef()
	report.Format = codec.Name()
	report.Width = stack.Width()
	report.Height = stack.Height()
	report.TimeSlices = stack.TimeSlices()
	report.Projection = ref.Projection
	report.GeoTransform = ref.GeoTransform

	var windows schema.PhaseWindows
	phaseValid := true
	if err := cfg.Phase.Validate(stack.TimeSlices()); err != nil {
		report.PhaseError = err.Error()
		phaseValid = false
	} else {
		windows = windowsOf(cfg.Phase, stack.TimeSlices())
	}

	report.Slices = make([]schema.SliceStats, stack.TimeSlices())
	for t := range stack.TimeSlices() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		stats := SliceStatsOf(stack.Slice(t))
		stats.Index = t
		stats.Phase = schema.PhaseIgnored
		if phaseValid {
			stats.Phase = schema.SlicePhaseOf(windows, t)
		}
		report.Slices[t] = stats
	}
	return report, nil
}

// SliceStatsOf computes min, max, mean and standard deviation over the
// non-NaN values of a slice. A slice with no valid values keeps zero
// statistics; its NaNCount equals the slice length.
func SliceStatsOf(values []float64) schema.SliceStats {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}

	stats := schema.SliceStats{NaNCount: len(values) - len(valid)}
	if len(valid) == 0 {
		return stats
	}

	stats.Min = floats.Min(valid)
	stats.Max = floats.Max(valid)
	if len(valid) == 1 {
		stats.Mean = valid[0]
		return stats
	}
	stats.Mean, stats.StdDev = stat.MeanStdDev(valid, nil)
	return stats
}

// windowsOf is a convenience for callers holding a validated config.
func windowsOf(cfg pheno.PhaseConfig, timeSlices int) schema.PhaseWindows {
	early, peak, late := cfg.Windows(timeSlices)
	return schema.PhaseWindows{Early: early, Peak: peak, Late: late}
}
