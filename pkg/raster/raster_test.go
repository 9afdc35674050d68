package raster

import (
	"math"
	"testing"
	"time"
)

func mustGrid(t *testing.T, rows, cols int) Grid {
	t.Helper()
	g, err := NewGrid(rows, cols, "test")
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func mustRaster(t *testing.T, g Grid, vals []float64, valid []bool) *Raster {
	t.Helper()
	r, err := New(g, vals, valid)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNewRejectsBadShapes(t *testing.T) {
	g := mustGrid(t, 2, 2)
	if _, err := New(g, []float64{1, 2, 3}, nil); err == nil {
		t.Error("expected error for short value slice")
	}
	if _, err := New(g, []float64{1, 2, 3, 4}, []bool{true}); err == nil {
		t.Error("expected error for short mask")
	}
	if _, err := NewGrid(0, 3, ""); err == nil {
		t.Error("expected error for empty grid")
	}
}

func TestNonFiniteValuesAreMasked(t *testing.T) {
	g := mustGrid(t, 1, 3)
	r := mustRaster(t, g, []float64{1, math.NaN(), math.Inf(1)}, nil)
	if r.ValidCount() != 1 {
		t.Fatalf("expected 1 valid pixel, got %d", r.ValidCount())
	}

	logged := r.Map(func(v float64) float64 { return math.Log(v - 2) })
	if logged.ValidCount() != 0 {
		t.Errorf("log of negative values should be masked, got %d valid", logged.ValidCount())
	}
}

func TestMaskPropagation(t *testing.T) {
	g := mustGrid(t, 1, 4)
	a := mustRaster(t, g, []float64{1, 2, 3, 4}, []bool{true, false, true, true})
	b := mustRaster(t, g, []float64{10, 20, 30, 40}, []bool{true, true, false, true})

	sum := Zip(a, b, func(x, y float64) float64 { return x + y })
	want := []Value{Some(11), None, None, Some(44)}
	for i, w := range want {
		if got := sum.Pixel(i); got != w {
			t.Errorf("pixel %d: expected %+v, got %+v", i, w, got)
		}
	}

	prod := ZipN(func(v []float64) float64 { return v[0] * v[1] * v[2] }, a, b, Fill(g, 2))
	if prod.Pixel(0) != Some(20) || prod.Pixel(1).OK || prod.Pixel(2).OK {
		t.Errorf("unexpected ZipN result %+v", prod.Values())
	}
}

func TestWhereAndOr(t *testing.T) {
	g := mustGrid(t, 1, 4)
	r := mustRaster(t, g, []float64{0.1, 0.5, 0.9, 0.3}, []bool{true, true, true, false})

	m := Test(r, func(v float64) bool { return v >= 0.5 })
	if m.Count() != 2 {
		t.Fatalf("expected predicate to hold on 2 pixels, got %d", m.Count())
	}
	if m.Holds(3) {
		t.Error("predicate on a masked pixel must be false")
	}

	kept := r.Where(m)
	if kept.ValidCount() != 2 || kept.Pixel(0).OK {
		t.Errorf("unexpected Where result %+v", kept.Values())
	}

	filled := kept.Or(0)
	if filled.ValidCount() != 4 || filled.Pixel(0) != Some(0) || filled.Pixel(2) != Some(0.9) {
		t.Errorf("unexpected Or result %+v", filled.Values())
	}
}

func TestResampleNearestNeighbour(t *testing.T) {
	src := mustRaster(t, mustGrid(t, 2, 2), []float64{1, 2, 3, 4}, []bool{true, true, true, false})
	dst := src.Resample(mustGrid(t, 4, 4))

	want := [][]Value{
		{Some(1), Some(1), Some(2), Some(2)},
		{Some(1), Some(1), Some(2), Some(2)},
		{Some(3), Some(3), None, None},
		{Some(3), Some(3), None, None},
	}
	for row := range want {
		for col, w := range want[row] {
			if got := dst.At(row, col); got != w {
				t.Errorf("(%d,%d): expected %+v, got %+v", row, col, w, got)
			}
		}
	}
}

func TestDenseMarksMaskedAsNaN(t *testing.T) {
	r := mustRaster(t, mustGrid(t, 1, 2), []float64{5, 6}, []bool{true, false})
	d := r.Dense()
	if d.At(0, 0) != 5 || !math.IsNaN(d.At(0, 1)) {
		t.Errorf("unexpected dense values %v %v", d.At(0, 0), d.At(0, 1))
	}
}

func TestEncodeDates(t *testing.T) {
	g := mustGrid(t, 1, 2)
	day := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	millis := mustRaster(t, g, []float64{Millis(day), 0}, []bool{true, false})

	d := EncodeDates(millis)
	if got := d.Compact.Pixel(0); got != Some(20230301) {
		t.Errorf("expected 20230301, got %+v", got)
	}
	if got := d.DayOfYear.Pixel(0); got != Some(60) {
		t.Errorf("expected day of year 60, got %+v", got)
	}
	if d.Compact.Pixel(1).OK || d.DayOfYear.Pixel(1).OK {
		t.Error("masked date must stay masked in every encoding")
	}
	if !FromMillis(Millis(day)).Equal(day) {
		t.Error("millis round trip failed")
	}
}

func TestEncodeDecode(t *testing.T) {
	g := mustGrid(t, 2, 1)
	r := mustRaster(t, g, []float64{1.5, 2.5}, []bool{false, true})
	back, err := Decode(r.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.Pixel(0).OK || back.Pixel(1) != Some(2.5) {
		t.Errorf("unexpected decoded raster %+v", back.Values())
	}
	if _, err := Decode(Encoded{Grid: g, Values: []float64{1, 2}}); err == nil {
		t.Error("expected error for missing mask")
	}
}
