package season

import (
	"errors"
	"testing"
	"time"

	"github.com/chrissnell/cropyield/pkg/raster"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	w, err := Resolve(2023, 4, 6, 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	checks := []struct {
		name string
		got  time.Time
		want time.Time
	}{
		{"ref", w.Ref, date(2023, time.April, 1)},
		{"start", w.Start, date(2023, time.March, 22)},
		{"stop", w.Stop, date(2023, time.October, 1)},
		{"peak stop", w.PeakStop, date(2023, time.September, 1)},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}

	if n := len(w.SeasonDays()); n != 183 {
		t.Errorf("expected 183 season days, got %d", n)
	}
}

func TestResolveRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name         string
		year, month  int
		months, mwin int
		param        string
	}{
		{"moving window shorter than sowing window", 2023, 4, 6, 3, "moving-window"},
		{"zero season length", 2023, 4, 0, 7, "season-months"},
		{"one month leaves no peak search", 2023, 4, 1, 7, "season-months"},
		{"season longer than a year", 2023, 4, 13, 7, "season-months"},
		{"month out of range", 2023, 13, 6, 7, "month"},
		{"missing year", 0, 4, 6, 7, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.year, tt.month, tt.months, tt.mwin)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Param != tt.param {
				t.Errorf("expected parameter %q, got %q", tt.param, cfgErr.Param)
			}
		})
	}
}

func dailySeries(t *testing.T, g raster.Grid, from time.Time, n int) raster.Series {
	t.Helper()
	frames := make([]raster.Frame, n)
	for i := range frames {
		frames[i] = raster.Frame{Time: from.AddDate(0, 0, i), Raster: raster.Fill(g, float64(i))}
	}
	s, err := raster.NewSeries(g, frames)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAlign(t *testing.T) {
	g, _ := raster.NewGrid(1, 1, "")
	w, err := Resolve(2023, 4, 2, 7)
	if err != nil {
		t.Fatal(err)
	}

	veg := dailySeries(t, g, date(2023, time.March, 1), 120)
	wx := dailySeries(t, g, date(2023, time.March, 1), 120)

	v, x, err := Align(veg, wx, w)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if !v.First().Equal(w.Ref) || !v.Last().Equal(w.Stop.AddDate(0, 0, -1)) {
		t.Errorf("vegetation not clipped to season: %s..%s", v.First(), v.Last())
	}
	if !x.First().Equal(w.Start) {
		t.Errorf("weather should start at %s, got %s", w.Start, x.First())
	}

	late := dailySeries(t, g, date(2024, time.January, 1), 30)
	_, _, err = Align(veg, late, w)
	var alignErr *AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("expected AlignmentError, got %v", err)
	}

	// weather that ends before vegetation starts inside the season
	early := dailySeries(t, g, date(2023, time.March, 24), 8)
	vegLate := dailySeries(t, g, date(2023, time.May, 1), 10)
	if _, _, err := Align(vegLate, early, w); !errors.As(err, &alignErr) {
		t.Fatalf("expected AlignmentError for disjoint spans, got %v", err)
	}
}
