package raster

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Frame is one time step of a series
type Frame struct {
	Time   time.Time
	Raster *Raster
}

// Series is an ordered sequence of frames with strictly increasing
// timestamps, all bound to the same grid.
type Series struct {
	grid   Grid
	frames []Frame
}

// NewSeries sorts frames by time and validates them. Duplicate timestamps and
// rasters on a different grid are rejected.
func NewSeries(grid Grid, frames []Frame) (Series, error) {
	sorted := make([]Frame, len(frames))
	copy(sorted, frames)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i, f := range sorted {
		if f.Raster == nil {
			return Series{}, fmt.Errorf("frame at %s has no raster", f.Time.Format(time.RFC3339))
		}
		if f.Raster.grid != grid {
			return Series{}, fmt.Errorf("frame at %s is on grid %dx%d, series grid is %dx%d",
				f.Time.Format(time.RFC3339), f.Raster.grid.Rows, f.Raster.grid.Cols, grid.Rows, grid.Cols)
		}
		if i > 0 && !sorted[i-1].Time.Before(f.Time) {
			return Series{}, fmt.Errorf("duplicate timestamp %s", f.Time.Format(time.RFC3339))
		}
	}
	return Series{grid: grid, frames: sorted}, nil
}

// Grid returns the series grid
func (s Series) Grid() Grid {
	return s.grid
}

// Len returns the number of frames
func (s Series) Len() int {
	return len(s.frames)
}

// Frame returns the i-th frame
func (s Series) Frame(i int) Frame {
	return s.frames[i]
}

// Times returns the timestamps of all frames
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Time
	}
	return out
}

// First returns the earliest timestamp. The series must not be empty.
func (s Series) First() time.Time {
	return s.frames[0].Time
}

// Last returns the latest timestamp. The series must not be empty.
func (s Series) Last() time.Time {
	return s.frames[len(s.frames)-1].Time
}

// Between returns the frames with start <= t < stop
func (s Series) Between(start, stop time.Time) Series {
	lo := sort.Search(len(s.frames), func(i int) bool {
		return !s.frames[i].Time.Before(start)
	})
	hi := sort.Search(len(s.frames), func(i int) bool {
		return !s.frames[i].Time.Before(stop)
	})
	if hi < lo {
		hi = lo
	}
	return Series{grid: s.grid, frames: s.frames[lo:hi:hi]}
}

// Lookup returns the raster stamped exactly at t
func (s Series) Lookup(t time.Time) (*Raster, bool) {
	i := sort.Search(len(s.frames), func(i int) bool {
		return !s.frames[i].Time.Before(t)
	})
	if i < len(s.frames) && s.frames[i].Time.Equal(t) {
		return s.frames[i].Raster, true
	}
	return nil, false
}

// Map builds a new series on the same timeline. fn must return rasters on the
// series grid.
func (s Series) Map(fn func(f Frame) *Raster) Series {
	out := make([]Frame, len(s.frames))
	for i, f := range s.frames {
		r := fn(f)
		mustMatch(s.grid, r.grid)
		out[i] = Frame{Time: f.Time, Raster: r}
	}
	return Series{grid: s.grid, frames: out}
}

// Kernel computes one pixel's output timeline from its input timeline. in
// holds the pixel's value at every input time; out has one slot per output
// time and starts fully masked.
type Kernel func(times []time.Time, in []Value, out []Value)

// ApplyAlongTime runs k independently for every pixel and assembles the
// results into a series stamped with outTimes, which must be strictly
// increasing. Pixels are partitioned across goroutines.
func ApplyAlongTime(s Series, outTimes []time.Time, k Kernel) Series {
	npix := s.grid.Len()
	times := s.Times()

	outVals := make([][]float64, len(outTimes))
	outValid := make([][]bool, len(outTimes))
	for j := range outTimes {
		outVals[j] = make([]float64, npix)
		outValid[j] = make([]bool, npix)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > npix {
		workers = npix
	}
	chunk := (npix + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < npix; lo += chunk {
		hi := lo + chunk
		if hi > npix {
			hi = npix
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			in := make([]Value, len(s.frames))
			out := make([]Value, len(outTimes))
			for p := lo; p < hi; p++ {
				for i, f := range s.frames {
					in[i] = f.Raster.Pixel(p)
				}
				for j := range out {
					out[j] = None
				}
				k(times, in, out)
				for j, v := range out {
					outVals[j][p], outValid[j][p] = v.V, v.OK
				}
			}
		}(lo, hi)
	}
	wg.Wait()

	frames := make([]Frame, len(outTimes))
	for j, t := range outTimes {
		frames[j] = Frame{Time: t, Raster: build(s.grid, outVals[j], outValid[j])}
	}
	return Series{grid: s.grid, frames: frames}
}

// Sum adds up every frame per pixel, skipping masked values. A pixel with no
// valid value in any frame is masked.
func Sum(s Series) *Raster {
	// masked pixels are stored as zero, so frames can be added as matrices
	acc := mat.NewDense(s.grid.Rows, s.grid.Cols, nil)
	valid := make([]bool, s.grid.Len())
	for _, f := range s.frames {
		acc.Add(acc, f.Raster.data)
		for i, ok := range f.Raster.valid {
			valid[i] = valid[i] || ok
		}
	}
	return build(s.grid, acc.RawMatrix().Data, valid)
}
