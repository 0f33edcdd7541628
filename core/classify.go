// Package core has the orchestration around the phase classifier: reading
// stacks, classifying, writing masks and recording runs.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/logger"
	"github.com/huangsam/phenomask/internal/outwriter"
	"github.com/huangsam/phenomask/internal/rasterio"
	"github.com/huangsam/phenomask/schema"
)

// progressSteps is how many progress lines a classification logs at most.
const progressSteps = 10

// ExecuteClassify classifies the configured stack and prints the summary.
func ExecuteClassify(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	summary, err := GetClassifyResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSummary(summary, cfg)
}

// GetClassifyResult reads cfg.InputPath, classifies it and writes the mask
// (and the preview when requested). The run is recorded in the history store
// of mgr when one is configured, whether it succeeds or fails.
func GetClassifyResult(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) (schema.ClassifySummary, error) {
	summary := schema.ClassifySummary{
		InputPath:   cfg.InputPath,
		PreviewPath: cfg.PreviewPath,
		Phase:       cfg.Phase,
		Workers:     cfg.Workers,
		StartedAt:   time.Now(),
	}

	in, out, outputPath, err := resolveCodecs(cfg)
	if err != nil {
		return summary, err
	}
	summary.InputFormat = in.Name()
	summary.OutputFormat = out.Name()
	summary.OutputPath = outputPath

	// --- 0. Begin Run Tracking (if configured) ---
	var store contract.RunStore
	if mgr != nil {
		store = mgr.GetRunStore()
	}
	var runID int64
	if store != nil {
		runID, err = store.BeginRun(summary.StartedAt, cfg.InputPath, runParams(cfg, summary))
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	err = classifyAndWrite(ctx, cfg, in, out, &summary)
	summary.Duration = time.Since(summary.StartedAt)

	// --- 4. End Run Tracking ---
	if store != nil && runID > 0 {
		outcome := schema.RunOutcome{
			State:          schema.RunSucceeded,
			OutputPath:     summary.OutputPath,
			Width:          summary.Width,
			Height:         summary.Height,
			TimeSlices:     summary.TimeSlices,
			PositivePixels: summary.PositivePixels,
		}
		if err != nil {
			outcome.State = schema.RunFailed
			outcome.OutputPath = ""
			outcome.Error = err.Error()
		}
		if endErr := store.EndRun(runID, time.Now(), outcome); endErr != nil {
			contract.LogWarn("Failed to finalize run tracking", endErr)
		} else {
			summary.RunID = runID
		}
	}

	return summary, err
}

// classifyAndWrite performs the decode, classify and encode stages.
func classifyAndWrite(ctx context.Context, cfg *contract.Config, in, out rasterio.Codec, summary *schema.ClassifySummary) error {
	// --- 1. Decode ---
	readStart := time.Now()
	stack, err := in.ReadStack(ctx, cfg.InputPath)
	if err != nil {
		return err
	}
	summary.Width = stack.Width()
	summary.Height = stack.Height()
	summary.TimeSlices = stack.TimeSlices()
	summary.Pixels = stack.Width() * stack.Height()
	summary.Windows = windowsOf(cfg.Phase, stack.TimeSlices())
	logger.Infow("Read stack",
		"path", cfg.InputPath, "format", in.Name(),
		"width", stack.Width(), "height", stack.Height(), "slices", stack.TimeSlices(),
		"elapsed", time.Since(readStart))

	// --- 2. Classify ---
	classifyStart := time.Now()
	opts := []pheno.Option{pheno.WithWorkers(cfg.Workers), pheno.WithBandRows(cfg.BandRows)}
	if !shouldSuppressProgress(ctx) {
		opts = append(opts, pheno.WithProgress(newProgressLogger(stack.Height())))
	}
	mask, err := pheno.Classify(ctx, stack, cfg.Phase, opts...)
	if err != nil {
		return err
	}
	summary.PositivePixels = mask.Positive()
	if summary.Pixels > 0 {
		summary.PositiveFraction = float64(summary.PositivePixels) / float64(summary.Pixels)
	}
	logger.Infow("Classified stack",
		"positive", summary.PositivePixels, "pixels", summary.Pixels,
		"workers", cfg.Workers, "elapsed", time.Since(classifyStart))

	// --- 3. Encode ---
	if err := out.WriteMask(ctx, summary.OutputPath, mask); err != nil {
		return fmt.Errorf("failed to write mask %s: %w", summary.OutputPath, err)
	}
	logger.Infow("Wrote mask", "path", summary.OutputPath, "format", out.Name())

	if cfg.PreviewPath != "" {
		if err := rasterio.WritePreview(cfg.PreviewPath, mask); err != nil {
			return fmt.Errorf("failed to write preview %s: %w", cfg.PreviewPath, err)
		}
		logger.Infow("Wrote preview", "path", cfg.PreviewPath)
	}
	return nil
}

// resolveCodecs picks the input codec, the output codec and the mask path.
// Without an explicit output format the mask uses the output path's
// extension, falling back to the input codec.
func resolveCodecs(cfg *contract.Config) (in, out rasterio.Codec, outputPath string, err error) {
	in, err = rasterio.ForPath(cfg.InputPath, cfg.InputFormat)
	if err != nil {
		return nil, nil, "", err
	}

	switch {
	case cfg.OutputFormat != "":
		out, err = rasterio.Lookup(cfg.OutputFormat)
	case cfg.OutputPath != "":
		out, err = rasterio.ForPath(cfg.OutputPath, "")
	default:
		out = in
	}
	if err != nil {
		return nil, nil, "", err
	}

	outputPath = cfg.OutputPath
	if outputPath == "" {
		outputPath = rasterio.MaskPath(cfg.InputPath, out)
	}
	if outputPath == cfg.InputPath {
		return nil, nil, "", fmt.Errorf("output path %s would overwrite the input stack", outputPath)
	}
	return in, out, outputPath, nil
}

// runParams is the configuration snapshot stored with a run.
func runParams(cfg *contract.Config, summary schema.ClassifySummary) map[string]any {
	return map[string]any{
		"min_index":     cfg.Phase.MinIndex,
		"max_index":     cfg.Phase.MaxIndex,
		"start_slice":   cfg.Phase.StartSlice,
		"peak_start":    cfg.Phase.PeakStart,
		"peak_end":      cfg.Phase.PeakEnd,
		"workers":       cfg.Workers,
		"band_rows":     cfg.BandRows,
		"input_format":  string(summary.InputFormat),
		"output_format": string(summary.OutputFormat),
		"output_path":   summary.OutputPath,
	}
}

// newProgressLogger returns a progress callback that logs about every tenth of the rows.
func newProgressLogger(totalRows int) pheno.ProgressFunc {
	var mu sync.Mutex
	logged := 0
	return func(done, total int) {
		step := done * progressSteps / max(total, 1)
		mu.Lock()
		if step <= logged {
			mu.Unlock()
			return
		}
		logged = step
		mu.Unlock()
		logger.Infow("Classification progress", "rows", done, "total", totalRows, "percent", step*100/progressSteps)
	}
}
