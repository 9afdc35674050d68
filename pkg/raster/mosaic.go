package raster

import "time"

// Mosaic is the per-pixel outcome of Select: for every pixel, the time step
// of the source series that won the selection, or none.
type Mosaic struct {
	grid  Grid
	times []time.Time
	index []int
}

// Select reduces a series to one record per pixel by choosing the time step
// that maximizes key. Masked key values are not candidates, ties go to the
// earliest time step, and pixels without any candidate are left unselected.
// The returned Mosaic carries the selected time so that any other series on
// the same timeline can be sampled at it with Take.
func Select(key Series) Mosaic {
	npix := key.grid.Len()
	index := make([]int, npix)
	best := make([]float64, npix)
	for i := range index {
		index[i] = -1
	}

	for t, f := range key.frames {
		for i, ok := range f.Raster.valid {
			if !ok {
				continue
			}
			// strict comparison keeps the earliest step on ties
			if index[i] < 0 || f.Raster.vals[i] > best[i] {
				index[i], best[i] = t, f.Raster.vals[i]
			}
		}
	}
	return Mosaic{grid: key.grid, times: key.Times(), index: index}
}

// Grid returns the mosaic grid
func (m Mosaic) Grid() Grid {
	return m.grid
}

// At returns the time selected for row-major pixel i
func (m Mosaic) At(i int) (time.Time, bool) {
	if m.index[i] < 0 {
		return time.Time{}, false
	}
	return m.times[m.index[i]], true
}

// Selected returns a mask of pixels that have a selected time step
func (m Mosaic) Selected() Mask {
	bits := make([]bool, len(m.index))
	for i, idx := range m.index {
		bits[i] = idx >= 0
	}
	return Mask{grid: m.grid, bits: bits}
}

// Take samples s at each pixel's selected time. Pixels without a selection,
// or whose selected time is absent from s, are masked.
func (m Mosaic) Take(s Series) *Raster {
	mustMatch(m.grid, s.grid)
	cache := make(map[int]*Raster)
	vals := make([]float64, len(m.index))
	valid := make([]bool, len(m.index))
	for i, idx := range m.index {
		if idx < 0 {
			continue
		}
		r, seen := cache[idx]
		if !seen {
			r, _ = s.Lookup(m.times[idx])
			cache[idx] = r
		}
		if r != nil && r.valid[i] {
			vals[i], valid[i] = r.vals[i], true
		}
	}
	return build(m.grid, vals, valid)
}

// Millis returns the selected time of every pixel as epoch milliseconds
func (m Mosaic) Millis() *Raster {
	vals := make([]float64, len(m.index))
	valid := make([]bool, len(m.index))
	for i, idx := range m.index {
		if idx >= 0 {
			vals[i], valid[i] = Millis(m.times[idx]), true
		}
	}
	return build(m.grid, vals, valid)
}

// Dates returns the three encodings of the selected times
func (m Mosaic) Dates() DateRasters {
	return EncodeDates(m.Millis())
}
