package raster

// Mask is a per-pixel predicate. A predicate evaluated on a masked pixel is
// false, so masks compose with And rather than by multiplying 0/1 rasters.
type Mask struct {
	grid Grid
	bits []bool
}

// All returns a mask that holds everywhere
func All(grid Grid) Mask {
	bits := make([]bool, grid.Len())
	for i := range bits {
		bits[i] = true
	}
	return Mask{grid: grid, bits: bits}
}

// Test evaluates pred on every unmasked pixel of r
func Test(r *Raster, pred func(v float64) bool) Mask {
	bits := make([]bool, len(r.vals))
	for i, ok := range r.valid {
		bits[i] = ok && pred(r.vals[i])
	}
	return Mask{grid: r.grid, bits: bits}
}

// Compare evaluates pred on pixels where both a and b are unmasked
func Compare(a, b *Raster, pred func(a, b float64) bool) Mask {
	mustMatch(a.grid, b.grid)
	bits := make([]bool, len(a.vals))
	for i := range a.vals {
		bits[i] = a.valid[i] && b.valid[i] && pred(a.vals[i], b.vals[i])
	}
	return Mask{grid: a.grid, bits: bits}
}

// And returns the conjunction of two masks
func (m Mask) And(o Mask) Mask {
	mustMatch(m.grid, o.grid)
	bits := make([]bool, len(m.bits))
	for i := range bits {
		bits[i] = m.bits[i] && o.bits[i]
	}
	return Mask{grid: m.grid, bits: bits}
}

// Holds reports whether the predicate is true at row-major index i
func (m Mask) Holds(i int) bool {
	return m.bits[i]
}

// Count returns the number of pixels where the predicate holds
func (m Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}
