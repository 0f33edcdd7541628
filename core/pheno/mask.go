package pheno

import "fmt"

// Mask is the binary classification output: one float32 cell per pixel,
// each exactly 0 or 1.
type Mask struct {
	width  int
	height int
	cells  []float32
	ref    SpatialRef
}

// newMask allocates a zero-filled mask.
func newMask(width, height int, ref SpatialRef) *Mask {
	return &Mask{
		width:  width,
		height: height,
		cells:  make([]float32, width*height),
		ref:    ref,
	}
}

// NewMaskFromCells rebuilds a mask read back from storage. Cells must be
// row-major, width*height long, and hold only 0 or 1.
func NewMaskFromCells(width, height int, cells []float32, ref SpatialRef) (*Mask, error) {
	total, err := CheckShape(width, height, 1)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(cells) != total {
		return nil, &DecodeError{Err: fmt.Errorf("mask has %d cells, expected %d", len(cells), total)}
	}
	for i, c := range cells {
		if c != 0 && c != 1 {
			return nil, &DecodeError{Err: fmt.Errorf("mask cell %d has non-binary value %v", i, c)}
		}
	}
	m := newMask(width, height, ref)
	copy(m.cells, cells)
	return m, nil
}

// Width returns the number of columns.
func (m *Mask) Width() int { return m.width }

// Height returns the number of rows.
func (m *Mask) Height() int { return m.height }

// SpatialRef returns the georeferencing copied from the source stack.
func (m *Mask) SpatialRef() SpatialRef { return m.ref }

// At returns the cell at row y, column x.
func (m *Mask) At(y, x int) float32 {
	return m.cells[y*m.width+x]
}

// Cells returns a row-major copy of all cells.
func (m *Mask) Cells() []float32 {
	out := make([]float32, len(m.cells))
	copy(out, m.cells)
	return out
}

// Positive counts the cells set to 1.
func (m *Mask) Positive() int {
	n := 0
	for _, c := range m.cells {
		if c == 1 {
			n++
		}
	}
	return n
}

// row exposes one row for the classifier; callers own disjoint rows.
func (m *Mask) row(y int) []float32 {
	return m.cells[y*m.width : (y+1)*m.width]
}
