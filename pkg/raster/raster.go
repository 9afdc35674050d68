// Package raster provides immutable, masked 2-D grids and time series of grids.
// Every per-pixel operation is elementwise and mask-propagating: an operation
// that touches a masked pixel yields a masked pixel.
package raster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Grid describes the spatial layout shared by all rasters of a run.
// Domain is an opaque reference to the area of interest.
type Grid struct {
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Domain string `json:"domain,omitempty"`
}

// NewGrid returns a grid with the given dimensions
func NewGrid(rows, cols int, domain string) (Grid, error) {
	if rows < 1 || cols < 1 {
		return Grid{}, fmt.Errorf("invalid grid dimensions %dx%d", rows, cols)
	}
	return Grid{Rows: rows, Cols: cols, Domain: domain}, nil
}

// Len returns the number of pixels in the grid
func (g Grid) Len() int {
	return g.Rows * g.Cols
}

// Value is a pixel value that may be absent (masked).
type Value struct {
	V  float64
	OK bool
}

// Some wraps a present value
func Some(v float64) Value {
	return Value{V: v, OK: true}
}

// None is the masked value
var None = Value{}

// Raster is an immutable grid of float64 values with a validity mask.
type Raster struct {
	grid  Grid
	data  *mat.Dense
	vals  []float64
	valid []bool
}

func build(grid Grid, vals []float64, valid []bool) *Raster {
	for i, v := range vals {
		if valid[i] && (math.IsNaN(v) || math.IsInf(v, 0)) {
			valid[i] = false
		}
		if !valid[i] {
			vals[i] = 0
		}
	}
	return &Raster{
		grid:  grid,
		data:  mat.NewDense(grid.Rows, grid.Cols, vals),
		vals:  vals,
		valid: valid,
	}
}

// New creates a raster from row-major values. A nil valid slice marks every
// finite value as valid. Non-finite values are always masked.
func New(grid Grid, values []float64, valid []bool) (*Raster, error) {
	if grid.Rows < 1 || grid.Cols < 1 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", grid.Rows, grid.Cols)
	}
	if len(values) != grid.Len() {
		return nil, fmt.Errorf("raster has %d values, grid %dx%d needs %d", len(values), grid.Rows, grid.Cols, grid.Len())
	}
	if valid != nil && len(valid) != grid.Len() {
		return nil, fmt.Errorf("raster mask has %d entries, grid needs %d", len(valid), grid.Len())
	}

	vals := make([]float64, len(values))
	copy(vals, values)
	mask := make([]bool, len(values))
	if valid == nil {
		for i := range mask {
			mask[i] = true
		}
	} else {
		copy(mask, valid)
	}
	return build(grid, vals, mask), nil
}

// FromValues creates a raster from optional values
func FromValues(grid Grid, values []Value) (*Raster, error) {
	if len(values) != grid.Len() {
		return nil, fmt.Errorf("raster has %d values, grid needs %d", len(values), grid.Len())
	}
	vals := make([]float64, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		vals[i], valid[i] = v.V, v.OK
	}
	return build(grid, vals, valid), nil
}

// Fill returns a raster with every pixel set to v
func Fill(grid Grid, v float64) *Raster {
	vals := make([]float64, grid.Len())
	valid := make([]bool, grid.Len())
	for i := range vals {
		vals[i], valid[i] = v, true
	}
	return build(grid, vals, valid)
}

// Masked returns a fully masked raster
func Masked(grid Grid) *Raster {
	return build(grid, make([]float64, grid.Len()), make([]bool, grid.Len()))
}

// Grid returns the raster's grid
func (r *Raster) Grid() Grid {
	return r.grid
}

// At returns the value at row, col
func (r *Raster) At(row, col int) Value {
	return r.Pixel(row*r.grid.Cols + col)
}

// Pixel returns the value at row-major index i
func (r *Raster) Pixel(i int) Value {
	return Value{V: r.vals[i], OK: r.valid[i]}
}

// Values returns a copy of all pixel values in row-major order
func (r *Raster) Values() []Value {
	out := make([]Value, len(r.vals))
	for i := range r.vals {
		out[i] = Value{V: r.vals[i], OK: r.valid[i]}
	}
	return out
}

// ValidCount returns the number of unmasked pixels
func (r *Raster) ValidCount() int {
	n := 0
	for _, ok := range r.valid {
		if ok {
			n++
		}
	}
	return n
}

// Valid returns the unmasked values in row-major order
func (r *Raster) Valid() []float64 {
	out := make([]float64, 0, len(r.vals))
	for i, ok := range r.valid {
		if ok {
			out = append(out, r.vals[i])
		}
	}
	return out
}

// Dense returns a copy of the raster as a matrix with masked pixels set to NaN.
func (r *Raster) Dense() *mat.Dense {
	out := mat.DenseCopyOf(r.data)
	for i, ok := range r.valid {
		if !ok {
			out.Set(i/r.grid.Cols, i%r.grid.Cols, math.NaN())
		}
	}
	return out
}

func mustMatch(a, b Grid) {
	if a != b {
		panic(fmt.Sprintf("raster grid mismatch: %dx%d(%s) vs %dx%d(%s)", a.Rows, a.Cols, a.Domain, b.Rows, b.Cols, b.Domain))
	}
}

// Map applies fn to every unmasked pixel
func (r *Raster) Map(fn func(v float64) float64) *Raster {
	vals := make([]float64, len(r.vals))
	valid := make([]bool, len(r.vals))
	for i, ok := range r.valid {
		if ok {
			vals[i], valid[i] = fn(r.vals[i]), true
		}
	}
	return build(r.grid, vals, valid)
}

// Zip combines two rasters pixel by pixel. The result is masked wherever
// either input is masked.
func Zip(a, b *Raster, fn func(a, b float64) float64) *Raster {
	mustMatch(a.grid, b.grid)
	vals := make([]float64, len(a.vals))
	valid := make([]bool, len(a.vals))
	for i := range a.vals {
		if a.valid[i] && b.valid[i] {
			vals[i], valid[i] = fn(a.vals[i], b.vals[i]), true
		}
	}
	return build(a.grid, vals, valid)
}

// ZipN combines any number of rasters pixel by pixel. fn receives the pixel
// values in argument order.
func ZipN(fn func(v []float64) float64, rs ...*Raster) *Raster {
	if len(rs) == 0 {
		panic("raster.ZipN needs at least one raster")
	}
	grid := rs[0].grid
	for _, r := range rs[1:] {
		mustMatch(grid, r.grid)
	}
	vals := make([]float64, grid.Len())
	valid := make([]bool, grid.Len())
	args := make([]float64, len(rs))
pixels:
	for i := range vals {
		for j, r := range rs {
			if !r.valid[i] {
				continue pixels
			}
			args[j] = r.vals[i]
		}
		vals[i], valid[i] = fn(args), true
	}
	return build(grid, vals, valid)
}

// Where keeps pixels for which m holds and masks the rest
func (r *Raster) Where(m Mask) *Raster {
	mustMatch(r.grid, m.grid)
	vals := make([]float64, len(r.vals))
	valid := make([]bool, len(r.vals))
	for i := range r.vals {
		if r.valid[i] && m.bits[i] {
			vals[i], valid[i] = r.vals[i], true
		}
	}
	return build(r.grid, vals, valid)
}

// Or replaces masked pixels with v
func (r *Raster) Or(v float64) *Raster {
	vals := make([]float64, len(r.vals))
	valid := make([]bool, len(r.vals))
	for i := range r.vals {
		vals[i], valid[i] = r.vals[i], true
		if !r.valid[i] {
			vals[i] = v
		}
	}
	return build(r.grid, vals, valid)
}

// Resample returns the raster on another grid using nearest-neighbour lookup.
func (r *Raster) Resample(grid Grid) *Raster {
	if grid.Rows == r.grid.Rows && grid.Cols == r.grid.Cols {
		out := *r
		out.grid.Domain = grid.Domain
		return &out
	}
	vals := make([]float64, grid.Len())
	valid := make([]bool, grid.Len())
	for row := 0; row < grid.Rows; row++ {
		srcRow := int((float64(row) + 0.5) * float64(r.grid.Rows) / float64(grid.Rows))
		for col := 0; col < grid.Cols; col++ {
			srcCol := int((float64(col) + 0.5) * float64(r.grid.Cols) / float64(grid.Cols))
			src := srcRow*r.grid.Cols + srcCol
			vals[row*grid.Cols+col], valid[row*grid.Cols+col] = r.vals[src], r.valid[src]
		}
	}
	return build(grid, vals, valid)
}
