// Package pheno classifies pixels of a vegetation-index time stack by their
// phenological pattern: low early, a peak inside a window, low again afterward.
//
// The package does no I/O. Callers decode rasters into a Stack, call Classify
// once for the whole stack, and encode the resulting Mask together with the
// stack's SpatialRef.
package pheno

import (
	"errors"
	"fmt"
	"math"
)

// SpatialRef is the georeferencing of a raster. It is never interpreted here,
// only carried from the input stack to the output mask.
type SpatialRef struct {
	Projection   string     `json:"projection"`
	GeoTransform [6]float64 `json:"geotransform"`
}

// Stack is a dense T x H x W array of index samples, indexed [t][y][x].
// A Stack is read-only after NewStack returns.
type Stack struct {
	width  int
	height int
	slices int
	values []float64 // t*height*width + y*width + x
	ref    SpatialRef
}

// NewStack builds a stack from time slices in band order (slice 0 is band 1).
// Each slice is a row-major width*height grid; the data is copied.
func NewStack(width, height int, slices [][]float64, ref SpatialRef) (*Stack, error) {
	if len(slices) == 0 {
		return nil, &DecodeError{Err: errors.New("stack has no time slices")}
	}
	total, err := CheckShape(width, height, len(slices))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	plane := width * height
	values := make([]float64, 0, total)
	for t, s := range slices {
		if len(s) != plane {
			return nil, &DecodeError{Err: fmt.Errorf("slice %d has %d samples, expected %d (%dx%d)", t, len(s), plane, width, height)}
		}
		values = append(values, s...)
	}

	return &Stack{
		width:  width,
		height: height,
		slices: len(slices),
		values: values,
		ref:    ref,
	}, nil
}

// CheckShape returns width*height*slices, the sample count of a raster.
// Every dimension must be positive and the product must fit in an int.
func CheckShape(width, height, slices int) (int, error) {
	if width <= 0 || height <= 0 || slices <= 0 {
		return 0, fmt.Errorf("invalid raster size %dx%dx%d", slices, height, width)
	}
	if width > math.MaxInt/height || width*height > math.MaxInt/slices {
		return 0, fmt.Errorf("raster size %dx%dx%d overflows the sample count", slices, height, width)
	}
	return width * height * slices, nil
}

// Width returns the number of columns.
func (s *Stack) Width() int { return s.width }

// Height returns the number of rows.
func (s *Stack) Height() int { return s.height }

// TimeSlices returns the number of temporal samples per pixel.
func (s *Stack) TimeSlices() int { return s.slices }

// SpatialRef returns the stack's georeferencing.
func (s *Stack) SpatialRef() SpatialRef { return s.ref }

// At returns the sample at time slice t, row y, column x.
func (s *Stack) At(t, y, x int) float64 {
	return s.values[s.offset(t, y, x)]
}

// Series copies the time series of pixel (y, x) into buf, growing it if needed,
// and returns the filled slice.
func (s *Stack) Series(y, x int, buf []float64) []float64 {
	if cap(buf) < s.slices {
		buf = make([]float64, s.slices)
	}
	buf = buf[:s.slices]
	plane := s.width * s.height
	idx := y*s.width + x
	for t := range s.slices {
		buf[t] = s.values[idx]
		idx += plane
	}
	return buf
}

// Slice returns a copy of time slice t as a row-major grid.
func (s *Stack) Slice(t int) []float64 {
	plane := s.width * s.height
	out := make([]float64, plane)
	copy(out, s.values[t*plane:(t+1)*plane])
	return out
}

// Validate checks the rectangular shape invariant the classifier relies on.
func (s *Stack) Validate() error {
	if s == nil {
		return &DecodeError{Err: errors.New("empty stack")}
	}
	total, err := CheckShape(s.width, s.height, s.slices)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if len(s.values) != total {
		return &DecodeError{Err: fmt.Errorf("stack holds %d samples, expected %d", len(s.values), total)}
	}
	return nil
}

func (s *Stack) offset(t, y, x int) int {
	return (t*s.height+y)*s.width + x
}
