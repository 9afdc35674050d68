package raster

import (
	"fmt"
	"time"
)

// Encoded is the wire form of a raster. Masked pixels carry a zero value and
// a false entry in Valid.
type Encoded struct {
	Grid   Grid      `json:"grid"`
	Values []float64 `json:"values"`
	Valid  []bool    `json:"valid"`
}

// EncodedFrame is the wire form of one series frame
type EncodedFrame struct {
	Time   time.Time `json:"time"`
	Raster Encoded   `json:"raster"`
}

// Encode returns the wire form of r
func (r *Raster) Encode() Encoded {
	vals := make([]float64, len(r.vals))
	valid := make([]bool, len(r.valid))
	copy(vals, r.vals)
	copy(valid, r.valid)
	return Encoded{Grid: r.grid, Values: vals, Valid: valid}
}

// Decode rebuilds a raster from its wire form
func Decode(e Encoded) (*Raster, error) {
	if e.Valid == nil {
		return nil, fmt.Errorf("encoded raster has no validity mask")
	}
	return New(e.Grid, e.Values, e.Valid)
}

// EncodeSeries returns the wire form of every frame of s
func EncodeSeries(s Series) []EncodedFrame {
	out := make([]EncodedFrame, len(s.frames))
	for i, f := range s.frames {
		out[i] = EncodedFrame{Time: f.Time, Raster: f.Raster.Encode()}
	}
	return out
}

// DecodeSeries rebuilds a series on grid from encoded frames
func DecodeSeries(grid Grid, frames []EncodedFrame) (Series, error) {
	decoded := make([]Frame, len(frames))
	for i, ef := range frames {
		r, err := Decode(ef.Raster)
		if err != nil {
			return Series{}, fmt.Errorf("frame %d (%s): %w", i, ef.Time.Format(time.DateOnly), err)
		}
		decoded[i] = Frame{Time: ef.Time.UTC(), Raster: r}
	}
	return NewSeries(grid, decoded)
}
