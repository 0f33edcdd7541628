package pheno

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seasonSeries returns a 20-slice series at 0.1 with a single peak at slice 10.
func seasonSeries(peak float64) []float64 {
	series := make([]float64, 20)
	for i := range series {
		series[i] = 0.1
	}
	series[10] = peak
	return series
}

// pixelStack builds a 1xN stack where each series becomes one pixel.
func pixelStack(t *testing.T, series ...[]float64) *Stack {
	t.Helper()
	depth := len(series[0])
	slices := make([][]float64, depth)
	for ti := range depth {
		slices[ti] = make([]float64, len(series))
		for x, s := range series {
			slices[ti][x] = s[ti]
		}
	}
	stack, err := NewStack(len(series), 1, slices, SpatialRef{})
	require.NoError(t, err)
	return stack
}

func classifyOne(t *testing.T, series []float64, cfg PhaseConfig) float32 {
	t.Helper()
	mask, err := Classify(context.Background(), pixelStack(t, series), cfg)
	require.NoError(t, err)
	return mask.At(0, 0)
}

func TestClassifyScenarios(t *testing.T) {
	cfg := DefaultPhaseConfig()

	tests := []struct {
		name     string
		series   func() []float64
		expected float32
	}{
		{
			name:     "peak above threshold with low shoulders",
			series:   func() []float64 { return seasonSeries(0.7) },
			expected: 1,
		},
		{
			name:     "peak below max index",
			series:   func() []float64 { return seasonSeries(0.6) },
			expected: 0,
		},
		{
			name: "early window reading above min index",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[2] = 0.55
				return s
			},
			expected: 0,
		},
		{
			name: "late window reading above min index",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[19] = 0.6
				return s
			},
			expected: 0,
		},
		{
			name:     "peak exactly at max index",
			series:   func() []float64 { return seasonSeries(0.65) },
			expected: 0,
		},
		{
			name: "early maximum exactly at min index",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[1] = 0.5
				return s
			},
			expected: 0,
		},
		{
			name: "late maximum exactly at min index",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[19] = 0.5
				return s
			},
			expected: 0,
		},
		{
			name: "slice before start is ignored",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[0] = 0.9
				return s
			},
			expected: 1,
		},
		{
			name: "transition slice before peak window is ignored",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[3] = 0.9
				return s
			},
			expected: 1,
		},
		{
			name: "transition slice after peak window is ignored",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[18] = 0.9
				return s
			},
			expected: 1,
		},
		{
			name: "peak on first slice of peak window",
			series: func() []float64 {
				s := seasonSeries(0.1)
				s[4] = 0.8
				return s
			},
			expected: 1,
		},
		{
			name: "peak on last slice of peak window",
			series: func() []float64 {
				s := seasonSeries(0.1)
				s[17] = 0.8
				return s
			},
			expected: 1,
		},
		{
			name: "NaN inside peak window",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[12] = math.NaN()
				return s
			},
			expected: 0,
		},
		{
			name: "NaN outside every window",
			series: func() []float64 {
				s := seasonSeries(0.7)
				s[0] = math.NaN()
				return s
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyOne(t, tt.series(), cfg))
		})
	}
}

func TestClassifyEmptyWindows(t *testing.T) {
	t.Run("empty early window fails", func(t *testing.T) {
		cfg := DefaultPhaseConfig()
		cfg.StartSlice = 3 // early window [3,3)
		assert.Equal(t, float32(0), classifyOne(t, seasonSeries(0.7), cfg))
	})

	t.Run("empty late window fails", func(t *testing.T) {
		series := seasonSeries(0.7)[:19] // late window [19,19)
		assert.Equal(t, float32(0), classifyOne(t, series, DefaultPhaseConfig()))
	})
}

func TestClassifyConfigurationErrors(t *testing.T) {
	stack := pixelStack(t, seasonSeries(0.7))

	tests := []struct {
		name   string
		mutate func(*PhaseConfig)
		field  string
	}{
		{"empty peak window", func(c *PhaseConfig) { c.PeakEnd = c.PeakStart }, "peak_start"},
		{"inverted peak window", func(c *PhaseConfig) { c.PeakStart, c.PeakEnd = 18, 4 }, "peak_start"},
		{"start at peak start", func(c *PhaseConfig) { c.StartSlice = c.PeakStart }, "start_slice"},
		{"negative start", func(c *PhaseConfig) { c.StartSlice = -1 }, "start_slice"},
		{"peak end beyond stack", func(c *PhaseConfig) { c.PeakEnd = 20 }, "peak_end"},
		{"NaN min index", func(c *PhaseConfig) { c.MinIndex = math.NaN() }, "min_index"},
		{"infinite max index", func(c *PhaseConfig) { c.MaxIndex = math.Inf(1) }, "max_index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPhaseConfig()
			tt.mutate(&cfg)

			mask, err := Classify(context.Background(), stack, cfg)
			assert.Nil(t, mask)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestClassifyInvalidStack(t *testing.T) {
	tests := []struct {
		name  string
		stack *Stack
	}{
		{"empty", &Stack{}},
		{"plane overflows", &Stack{width: math.MaxInt/4 + 1, height: 8, slices: 20}},
		{"samples overflow", &Stack{width: 1 << 20, height: 1 << 10, slices: math.MaxInt / (1 << 29)}},
		{"missing samples", &Stack{width: 2, height: 2, slices: 3, values: make([]float64, 11)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask, err := Classify(context.Background(), tt.stack, DefaultPhaseConfig())
			assert.Nil(t, mask)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
		})
	}
}

func TestClassifyPixelIndependence(t *testing.T) {
	stack := pixelStack(t, seasonSeries(0.7), seasonSeries(0.6))

	mask, err := Classify(context.Background(), stack, DefaultPhaseConfig())
	require.NoError(t, err)

	assert.Equal(t, float32(1), mask.At(0, 0))
	assert.Equal(t, float32(0), mask.At(0, 1))
	assert.Equal(t, 1, mask.Positive())
}

// randomStack builds a stack of low noise where each pixel either follows the
// season pattern or breaks exactly one of its phases.
func randomStack(t *testing.T, width, height, depth int, seed uint64) *Stack {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	slices := make([][]float64, depth)
	for ti := range slices {
		slices[ti] = make([]float64, width*height)
		for i := range slices[ti] {
			slices[ti][i] = rng.Float64() * 0.45
		}
	}
	for i := range width * height {
		switch rng.IntN(4) {
		case 0: // matching
			slices[10][i] = 0.7 + rng.Float64()*0.2
		case 1: // wet early season
			slices[10][i] = 0.7 + rng.Float64()*0.2
			slices[2][i] = 0.55
		case 2: // weak peak, stays low
		case 3: // late regrowth
			slices[10][i] = 0.7 + rng.Float64()*0.2
			slices[depth-1][i] = 0.6
		}
	}
	stack, err := NewStack(width, height, slices, SpatialRef{Projection: "EPSG:32637", GeoTransform: [6]float64{500000, 10, 0, 6000000, 0, -10}})
	require.NoError(t, err)
	return stack
}

func TestClassifyShapeAndBinary(t *testing.T) {
	stack := randomStack(t, 37, 23, 22, 7)

	mask, err := Classify(context.Background(), stack, DefaultPhaseConfig())
	require.NoError(t, err)

	assert.Equal(t, stack.Width(), mask.Width())
	assert.Equal(t, stack.Height(), mask.Height())
	assert.Equal(t, stack.SpatialRef(), mask.SpatialRef())
	for _, c := range mask.Cells() {
		assert.True(t, c == 0 || c == 1, "cell %v is not binary", c)
	}
	assert.Positive(t, mask.Positive())
	assert.Less(t, mask.Positive(), 37*23)
}

func TestClassifyDeterministicAcrossSchedules(t *testing.T) {
	stack := randomStack(t, 41, 29, 24, 42)
	cfg := DefaultPhaseConfig()

	reference, err := Classify(context.Background(), stack, cfg, WithWorkers(1), WithBandRows(29))
	require.NoError(t, err)

	schedules := [][]Option{
		{WithWorkers(1), WithBandRows(1)},
		{WithWorkers(4), WithBandRows(3)},
		{WithWorkers(16), WithBandRows(1)},
		{},
	}
	for _, opts := range schedules {
		mask, err := Classify(context.Background(), stack, cfg, opts...)
		require.NoError(t, err)
		assert.Equal(t, reference.Cells(), mask.Cells())
	}
}

func TestClassifyMatchesPerPixelConjunction(t *testing.T) {
	stack := randomStack(t, 13, 11, 21, 99)
	cfg := DefaultPhaseConfig()

	mask, err := Classify(context.Background(), stack, cfg)
	require.NoError(t, err)

	early, peak, late := cfg.Windows(stack.TimeSlices())
	windowMaxOf := func(series []float64, w Window) float64 {
		m := math.Inf(-1)
		for _, v := range series[w.Start:w.End] {
			m = math.Max(m, v)
		}
		return m
	}

	var series []float64
	for y := range stack.Height() {
		for x := range stack.Width() {
			series = stack.Series(y, x, series)
			want := windowMaxOf(series, early) < cfg.MinIndex &&
				windowMaxOf(series, peak) > cfg.MaxIndex &&
				windowMaxOf(series, late) < cfg.MinIndex
			assert.Equal(t, want, mask.At(y, x) == 1, "pixel (%d,%d)", y, x)
		}
	}
}

func TestClassifyProgress(t *testing.T) {
	stack := randomStack(t, 8, 50, 20, 3)

	var mu sync.Mutex
	var last, calls int
	_, err := Classify(context.Background(), stack, DefaultPhaseConfig(),
		WithWorkers(3),
		WithBandRows(7),
		WithProgress(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			last = max(last, done)
			assert.Equal(t, 50, total)
		}))
	require.NoError(t, err)

	assert.Equal(t, 8, calls) // ceil(50/7)
	assert.Equal(t, 50, last)
}

func TestClassifyCancelled(t *testing.T) {
	stack := randomStack(t, 10, 10, 20, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mask, err := Classify(ctx, stack, DefaultPhaseConfig())
	assert.Nil(t, mask)
	assert.True(t, errors.Is(err, context.Canceled))
}
