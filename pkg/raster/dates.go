package raster

import "time"

// DateRasters holds one per-pixel event date in its three encodings.
type DateRasters struct {
	Millis    *Raster // milliseconds since the Unix epoch
	Compact   *Raster // YYYYMMDD
	DayOfYear *Raster // 1-based day of year
}

// Millis converts t to epoch milliseconds
func Millis(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// FromMillis converts epoch milliseconds to a UTC time
func FromMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

// Compact returns t as a YYYYMMDD integer
func Compact(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// EncodeDates derives the YYYYMMDD and day-of-year encodings from a raster
// of epoch milliseconds.
func EncodeDates(millis *Raster) DateRasters {
	return DateRasters{
		Millis: millis,
		Compact: millis.Map(func(ms float64) float64 {
			return Compact(FromMillis(ms))
		}),
		DayOfYear: millis.Map(func(ms float64) float64 {
			return float64(FromMillis(ms).YearDay())
		}),
	}
}

// Constant returns a raster holding t as epoch milliseconds at every pixel
func Constant(grid Grid, t time.Time) *Raster {
	return Fill(grid, Millis(t))
}
