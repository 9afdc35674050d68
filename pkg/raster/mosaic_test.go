package raster

import "testing"

func TestSelectPicksMaximum(t *testing.T) {
	tests := []struct {
		name    string
		vals    []float64
		wantDay int
	}{
		{name: "single peak", vals: []float64{0.2, 0.5, 0.9, 0.4}, wantDay: 2},
		{name: "tie goes to earliest", vals: []float64{0.3, 0.8, 0.1, 0.8}, wantDay: 1},
		{name: "flat series", vals: []float64{0.5, 0.5, 0.5}, wantDay: 0},
		{name: "negative values", vals: []float64{-0.4, -0.2, -0.6}, wantDay: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Select(seriesOf(t, tt.vals))
			got, ok := m.At(0)
			if !ok {
				t.Fatal("expected a selection")
			}
			if !got.Equal(dayN(tt.wantDay)) {
				t.Errorf("expected day %d, got %s", tt.wantDay, got)
			}
			if _, ok := m.At(1); ok {
				t.Error("fully masked pixel must not be selected")
			}
		})
	}
}

func TestSelectSkipsMaskedCandidates(t *testing.T) {
	g := mustGrid(t, 1, 1)
	frames := []Frame{
		{Time: dayN(0), Raster: mustRaster(t, g, []float64{9}, []bool{false})},
		{Time: dayN(1), Raster: mustRaster(t, g, []float64{1}, nil)},
		{Time: dayN(2), Raster: mustRaster(t, g, []float64{2}, nil)},
	}
	s, err := NewSeries(g, frames)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := Select(s).At(0)
	if !ok || !got.Equal(dayN(2)) {
		t.Errorf("expected day 2, got %s (%v)", got, ok)
	}
}

func TestMosaicTakeCarriesRecord(t *testing.T) {
	key := seriesOf(t, []float64{0.1, 0.7, 0.3})
	other := seriesOf(t, []float64{10, 20, 30})

	m := Select(key)
	if got := m.Take(other).Pixel(0); got != Some(20) {
		t.Errorf("expected value from selected step, got %+v", got)
	}
	if m.Take(other).Pixel(1).OK {
		t.Error("unselected pixel must be masked")
	}

	// a series missing the selected step yields masked
	if m.Take(other.Between(dayN(2), dayN(3))).Pixel(0).OK {
		t.Error("expected masked value when the selected step is absent")
	}

	d := m.Dates()
	if d.DayOfYear.Pixel(0) != Some(float64(dayN(1).YearDay())) {
		t.Errorf("unexpected day of year %+v", d.DayOfYear.Pixel(0))
	}
	if d.Millis.Pixel(1).OK || m.Selected().Holds(1) {
		t.Error("unselected pixel must be masked in dates")
	}
}
