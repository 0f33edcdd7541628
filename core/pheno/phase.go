package pheno

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Reference defaults for a single-season crop NDVI stack.
const (
	DefaultMinIndex   = 0.5
	DefaultMaxIndex   = 0.65
	DefaultStartSlice = 1
	DefaultPeakStart  = 4
	DefaultPeakEnd    = 18
)

// PhaseConfig holds the thresholds and window boundaries of one classification run.
type PhaseConfig struct {
	MinIndex   float64 `json:"min_index"`   // early and late maxima must stay strictly below this
	MaxIndex   float64 `json:"max_index"`   // the peak maximum must be strictly above this
	StartSlice int     `json:"start_slice"` // first slice of the early window
	PeakStart  int     `json:"peak_start"`  // first slice of the peak window
	PeakEnd    int     `json:"peak_end"`    // end (exclusive) of the peak window
}

// DefaultPhaseConfig returns the reference configuration.
func DefaultPhaseConfig() PhaseConfig {
	return PhaseConfig{
		MinIndex:   DefaultMinIndex,
		MaxIndex:   DefaultMaxIndex,
		StartSlice: DefaultStartSlice,
		PeakStart:  DefaultPeakStart,
		PeakEnd:    DefaultPeakEnd,
	}
}

// Window is a half-open range [Start, End) of time slices.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of slices in the window, zero when empty.
func (w Window) Len() int {
	return max(w.End-w.Start, 0)
}

// Empty reports whether the window holds no slices.
func (w Window) Empty() bool {
	return w.Len() == 0
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}

// Windows returns the early, peak and late windows for a stack of the given depth.
// The early window stops one slice short of the peak window and the late window
// starts one slice after it; the skipped slices are transition dates.
func (c PhaseConfig) Windows(timeSlices int) (early, peak, late Window) {
	early = Window{Start: c.StartSlice, End: c.PeakStart - 1}
	peak = Window{Start: c.PeakStart, End: c.PeakEnd}
	late = Window{Start: c.PeakEnd + 1, End: timeSlices}
	return early, peak, late
}

// Validate checks the configuration against a stack depth.
func (c PhaseConfig) Validate(timeSlices int) error {
	if math.IsNaN(c.MinIndex) || math.IsInf(c.MinIndex, 0) {
		return &ConfigurationError{Field: "min_index", Reason: "must be a finite number"}
	}
	if math.IsNaN(c.MaxIndex) || math.IsInf(c.MaxIndex, 0) {
		return &ConfigurationError{Field: "max_index", Reason: "must be a finite number"}
	}
	if c.StartSlice < 0 {
		return &ConfigurationError{Field: "start_slice", Reason: fmt.Sprintf("%d is negative", c.StartSlice)}
	}
	if c.StartSlice >= c.PeakStart {
		return &ConfigurationError{Field: "start_slice", Reason: fmt.Sprintf("%d must be less than peak_start %d", c.StartSlice, c.PeakStart)}
	}
	if c.PeakStart >= c.PeakEnd {
		return &ConfigurationError{Field: "peak_start", Reason: fmt.Sprintf("%d must be less than peak_end %d", c.PeakStart, c.PeakEnd)}
	}
	if c.PeakEnd >= timeSlices {
		return &ConfigurationError{Field: "peak_end", Reason: fmt.Sprintf("%d is outside the stack's %d time slices", c.PeakEnd, timeSlices)}
	}
	return nil
}

// phaseWindows is the resolved form of a PhaseConfig used in the pixel loop.
type phaseWindows struct {
	early, peak, late Window
	minIndex          float64
	maxIndex          float64
}

func (c PhaseConfig) resolve(timeSlices int) phaseWindows {
	early, peak, late := c.Windows(timeSlices)
	return phaseWindows{
		early:    early,
		peak:     peak,
		late:     late,
		minIndex: c.MinIndex,
		maxIndex: c.MaxIndex,
	}
}

// matches evaluates the three phase conditions on one pixel's series.
// An empty window fails its condition; a NaN sample makes its window's
// maximum NaN, which fails every comparison.
func (pw phaseWindows) matches(series []float64) bool {
	earlyMax, ok := windowMax(series, pw.early)
	if !ok || !(earlyMax < pw.minIndex) {
		return false
	}
	peakMax, ok := windowMax(series, pw.peak)
	if !ok || !(peakMax > pw.maxIndex) {
		return false
	}
	lateMax, ok := windowMax(series, pw.late)
	if !ok || !(lateMax < pw.minIndex) {
		return false
	}
	return true
}

// windowMax returns the maximum of series over w, and false when w is empty.
func windowMax(series []float64, w Window) (float64, bool) {
	if w.Empty() {
		return 0, false
	}
	sub := series[w.Start:w.End]
	if floats.HasNaN(sub) {
		return math.NaN(), true
	}
	return floats.Max(sub), true
}
