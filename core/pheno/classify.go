package pheno

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the number of completed rows out of the total.
// It may be called concurrently from several workers.
type ProgressFunc func(doneRows, totalRows int)

type classifyOptions struct {
	workers  int
	bandRows int
	progress ProgressFunc
}

// Option tunes how Classify schedules work. Options never change the result.
type Option func(*classifyOptions)

// WithWorkers bounds the number of goroutines evaluating row bands.
// Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *classifyOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithBandRows sets how many rows make up one unit of work.
func WithBandRows(n int) Option {
	return func(o *classifyOptions) {
		if n > 0 {
			o.bandRows = n
		}
	}
}

// WithProgress registers a callback invoked after each completed row band.
func WithProgress(fn ProgressFunc) Option {
	return func(o *classifyOptions) {
		o.progress = fn
	}
}

// Classify evaluates every pixel of stack against the phase pattern in cfg
// and returns a mask of the same height and width.
//
// The configuration is validated before any pixel is read; an invalid one
// yields a *ConfigurationError and no mask. Rows are split into bands that
// are processed in parallel, each band writing only its own mask rows.
// If ctx is cancelled the classification stops and ctx.Err() is returned.
func Classify(ctx context.Context, stack *Stack, cfg PhaseConfig, opts ...Option) (*Mask, error) {
	if err := stack.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(stack.TimeSlices()); err != nil {
		return nil, err
	}

	o := classifyOptions{
		workers:  runtime.GOMAXPROCS(0),
		bandRows: 16,
	}
	for _, opt := range opts {
		opt(&o)
	}

	pw := cfg.resolve(stack.TimeSlices())
	mask := newMask(stack.Width(), stack.Height(), stack.SpatialRef())
	height := stack.Height()

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for start := 0; start < height; start += o.bandRows {
		end := min(start+o.bandRows, height)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			classifyRows(stack, pw, mask, start, end)
			if o.progress != nil {
				o.progress(int(done.Add(int64(end-start))), height)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation that arrived between bands leaves no error in the group.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mask, nil
}

// classifyRows fills mask rows [start, end). The series buffer is local to
// the call so concurrent bands share nothing mutable.
func classifyRows(stack *Stack, pw phaseWindows, mask *Mask, start, end int) {
	series := make([]float64, stack.TimeSlices())
	for y := start; y < end; y++ {
		row := mask.row(y)
		for x := range row {
			series = stack.Series(y, x, series)
			if pw.matches(series) {
				row[x] = 1
			}
		}
	}
}
