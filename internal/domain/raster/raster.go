// Package raster provides the 2-D float64 grid type the shadow engine and its
// adapters operate on. Grids are stored row-major; row 0 is the northern edge
// and column 0 the western edge.
package raster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Grid is a rectangular raster of float64 samples.
type Grid struct {
	rows int
	cols int
	vals []float64
}

// New returns a zero-filled grid of the given dimensions.
func New(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyGrid, rows, cols)
	}
	return &Grid{
		rows: rows,
		cols: cols,
		vals: make([]float64, rows*cols),
	}, nil
}

// FromRows builds a grid from row slices. The input must be non-empty and
// rectangular; values are copied.
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	cols := len(rows[0])
	g, err := New(len(rows), cols)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrRaggedGrid, i, len(row), cols)
		}
		copy(g.vals[i*cols:(i+1)*cols], row)
	}
	return g, nil
}

// FromDense copies a gonum dense matrix into a grid.
func FromDense(d *mat.Dense) (*Grid, error) {
	if d == nil {
		return nil, ErrEmptyGrid
	}
	r, c := d.Dims()
	g, err := New(r, c)
	if err != nil {
		return nil, err
	}
	for i := 0; i < r; i++ {
		copy(g.vals[i*c:(i+1)*c], d.RawRowView(i))
	}
	return g, nil
}

// Rows reports the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols reports the number of columns.
func (g *Grid) Cols() int { return g.cols }

// At returns the value at (r, c).
func (g *Grid) At(r, c int) float64 {
	g.check(r, c)
	return g.vals[r*g.cols+c]
}

// Set stores v at (r, c).
func (g *Grid) Set(r, c int, v float64) {
	g.check(r, c)
	g.vals[r*g.cols+c] = v
}

func (g *Grid) check(r, c int) {
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		panic(fmt.Sprintf("raster: index (%d,%d) out of range %dx%d", r, c, g.rows, g.cols))
	}
}

// Values exposes the backing slice, row-major. The slice is shared with the
// grid, not a copy; callers that mutate it mutate the grid.
func (g *Grid) Values() []float64 { return g.vals }

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		rows: g.rows,
		cols: g.cols,
		vals: make([]float64, len(g.vals)),
	}
	copy(c.vals, g.vals)
	return c
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float64) {
	for i := range g.vals {
		g.vals[i] = v
	}
}

// SameDims reports whether o has identical dimensions.
func (g *Grid) SameDims(o *Grid) bool {
	return o != nil && g.rows == o.rows && g.cols == o.cols
}

// Min returns the smallest value in the grid.
func (g *Grid) Min() float64 { return floats.Min(g.vals) }

// Max returns the largest value in the grid.
func (g *Grid) Max() float64 { return floats.Max(g.vals) }

// Bilinear samples the grid at fractional coordinates. Callers must keep
// r within [0, rows-1] and c within [0, cols-1]; integer coordinates
// reproduce the exact cell value.
func (g *Grid) Bilinear(r, c float64) float64 {
	i0 := int(math.Floor(r))
	j0 := int(math.Floor(c))
	fr := r - float64(i0)
	fc := c - float64(j0)
	i1, j1 := i0, j0
	if fr > 0 {
		i1 = i0 + 1
	}
	if fc > 0 {
		j1 = j0 + 1
	}
	v00 := g.vals[i0*g.cols+j0]
	v01 := g.vals[i0*g.cols+j1]
	v10 := g.vals[i1*g.cols+j0]
	v11 := g.vals[i1*g.cols+j1]
	top := v00 + (v01-v00)*fc
	bot := v10 + (v11-v10)*fc
	return top + (bot-top)*fr
}

// ToDense copies the grid into a gonum dense matrix.
func (g *Grid) ToDense() *mat.Dense {
	out := make([]float64, len(g.vals))
	copy(out, g.vals)
	return mat.NewDense(g.rows, g.cols, out)
}
