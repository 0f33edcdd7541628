package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/logger"
	"github.com/huangsam/phenomask/internal/rasterio"
)

// Ways a synthetic pixel can miss the phase pattern.
const (
	synthMatch = iota
	synthWetEarly
	synthWeakPeak
	synthLateRegrowth
)

// SynthResult is a generated stack with the number of pixels built to match.
type SynthResult struct {
	Stack    *pheno.Stack
	Expected int
}

// GenerateStack builds a deterministic synthetic stack for phase. About
// opts.MatchFraction of the pixels follow the early/peak/late pattern; each
// other pixel breaks exactly one of the three conditions. The same options
// and phase always produce the same stack.
func GenerateStack(opts contract.SynthConfig, phase pheno.PhaseConfig) (SynthResult, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.Slices <= 0 {
		return SynthResult{}, fmt.Errorf("synthetic stack needs positive dimensions (got %dx%dx%d)", opts.Width, opts.Height, opts.Slices)
	}
	if err := phase.Validate(opts.Slices); err != nil {
		return SynthResult{}, err
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	early, peak, late := phase.Windows(opts.Slices)
	plane := opts.Width * opts.Height

	// Background stays strictly below both thresholds so it never matches alone.
	low := min(phase.MinIndex, phase.MaxIndex)
	slices := make([][]float64, opts.Slices)
	for t := range slices {
		slices[t] = make([]float64, plane)
		for i := range slices[t] {
			slices[t][i] = low - 0.05 - 0.25*rng.Float64()
		}
	}

	expected := 0
	for i := range plane {
		kind := synthMatch
		if rng.Float64() >= opts.MatchFraction {
			kind = synthWetEarly + rng.IntN(3)
		}
		if (kind == synthWetEarly && early.Empty()) || (kind == synthLateRegrowth && late.Empty()) {
			kind = synthWeakPeak
		}

		if kind != synthWeakPeak {
			// A bell of green-up over the peak window
			top := peak.Start + rng.IntN(peak.Len())
			height := phase.MaxIndex + 0.05 + 0.15*rng.Float64()
			for t := peak.Start; t < peak.End; t++ {
				d := float64(t-top) / float64(peak.Len())
				slices[t][i] = max(slices[t][i], height*(1-2*d*d))
			}
			slices[top][i] = height
		}

		switch kind {
		case synthMatch:
			// An empty shoulder window fails its phase, so nothing can match
			if !early.Empty() && !late.Empty() {
				expected++
			}
		case synthWetEarly:
			t := early.Start + rng.IntN(early.Len())
			slices[t][i] = phase.MinIndex + 0.05
		case synthLateRegrowth:
			t := late.Start + rng.IntN(late.Len())
			slices[t][i] = phase.MinIndex + 0.05
		}
	}

	ref := pheno.SpatialRef{
		Projection:   "EPSG:4326",
		GeoTransform: [6]float64{0, 0.0001, 0, 0, 0, -0.0001},
	}
	stack, err := pheno.NewStack(opts.Width, opts.Height, slices, ref)
	if err != nil {
		return SynthResult{}, err
	}
	return SynthResult{Stack: stack, Expected: expected}, nil
}

// ExecuteSynth generates a synthetic stack from cfg.Synth and writes it to cfg.OutputPath.
func ExecuteSynth(ctx context.Context, cfg *contract.Config) error {
	if cfg.OutputPath == "" {
		return fmt.Errorf("an output path is required for synth")
	}
	codec, err := rasterio.ForPath(cfg.OutputPath, cfg.OutputFormat)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := GenerateStack(cfg.Synth, cfg.Phase)
	if err != nil {
		return err
	}
	if err := codec.WriteStack(ctx, cfg.OutputPath, result.Stack); err != nil {
		return fmt.Errorf("failed to write stack %s: %w", cfg.OutputPath, err)
	}

	logger.Infow("Wrote synthetic stack",
		"path", cfg.OutputPath, "format", codec.Name(),
		"width", cfg.Synth.Width, "height", cfg.Synth.Height, "slices", cfg.Synth.Slices,
		"seed", cfg.Synth.Seed, "expected_positive", result.Expected,
		"elapsed", time.Since(start))
	return nil
}
