package biomass

import (
	"math"
	"testing"
	"time"

	"github.com/chrissnell/cropyield/internal/crop"
	"github.com/chrissnell/cropyield/pkg/raster"
)

const epsilon = 1e-9

var day0 = time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func constant(t *testing.T, g raster.Grid, from, n int, v float64) raster.Series {
	t.Helper()
	frames := make([]raster.Frame, n)
	for i := range frames {
		frames[i] = raster.Frame{Time: dayN(from + i), Raster: raster.Fill(g, v)}
	}
	s, err := raster.NewSeries(g, frames)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func variables(g raster.Grid) crop.Variables {
	return crop.Constant(crop.Maize, crop.DefaultsFor(crop.Maize), g)
}

// daily photosynthate for GSR 20, LAI 2 and no stress with maize defaults
var fullPh = 10 * (1 - math.Exp(-0.5*2)) * 4

func TestPhotosynthate(t *testing.T) {
	g, _ := raster.NewGrid(1, 1, "")
	lai := constant(t, g, 0, 10, 2)
	gsr := constant(t, g, -5, 20, 20)
	ftemp := constant(t, g, -5, 20, 1)

	ph := Photosynthate(lai, gsr, ftemp, nil, variables(g))

	if ph.Len() != 9 {
		t.Fatalf("expected days [first LAI, last LAI), got %d frames", ph.Len())
	}
	if !ph.First().Equal(dayN(0)) || !ph.Last().Equal(dayN(8)) {
		t.Errorf("unexpected day range %s..%s", ph.First(), ph.Last())
	}
	for i := 0; i < ph.Len(); i++ {
		if p := ph.Frame(i).Raster.Pixel(0); !p.OK || math.Abs(p.V-fullPh) > epsilon {
			t.Errorf("day %d: expected %v, got %+v", i, fullPh, p)
		}
	}
}

func TestPhotosynthateMissingInputs(t *testing.T) {
	g, _ := raster.NewGrid(1, 1, "")
	lai, err := raster.NewSeries(g, []raster.Frame{
		{Time: dayN(0), Raster: raster.Fill(g, 2)},
		{Time: dayN(3), Raster: raster.Fill(g, 2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	gsr := constant(t, g, 0, 5, 20)
	ftemp := constant(t, g, 0, 5, 1)
	water, err := raster.NewSeries(g, []raster.Frame{
		{Time: dayN(0), Raster: raster.Fill(g, 0.5)},
		{Time: dayN(1), Raster: raster.Fill(g, 0.5)},
	})
	if err != nil {
		t.Fatal(err)
	}

	ph := Photosynthate(lai, gsr, ftemp, &water, variables(g))

	want := []raster.Value{
		raster.Some(fullPh * 0.5),
		raster.Some(0), // no LAI frame
		raster.None,    // no water sample
	}
	if ph.Len() != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), ph.Len())
	}
	for i, w := range want {
		p := ph.Frame(i).Raster.Pixel(0)
		if p.OK != w.OK || math.Abs(p.V-w.V) > epsilon {
			t.Errorf("day %d: expected %+v, got %+v", i, w, p)
		}
	}
}

func TestPhotosynthateMissingTemperatureFactor(t *testing.T) {
	g, _ := raster.NewGrid(1, 1, "")
	// days [0, 3)
	lai := constant(t, g, 0, 4, 2)
	gsr := constant(t, g, 0, 4, 20)
	ftemp, err := raster.NewSeries(g, []raster.Frame{
		{Time: dayN(0), Raster: raster.Fill(g, 1)},
		{Time: dayN(1), Raster: raster.Masked(g)},
	})
	if err != nil {
		t.Fatal(err)
	}

	ph := Photosynthate(lai, gsr, ftemp, nil, variables(g))

	// day 1 is masked, day 2 has no sample at all
	want := []raster.Value{raster.Some(fullPh), raster.None, raster.None}
	if ph.Len() != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), ph.Len())
	}
	for i, w := range want {
		p := ph.Frame(i).Raster.Pixel(0)
		if p.OK != w.OK || math.Abs(p.V-w.V) > epsilon {
			t.Errorf("day %d: expected %+v, got %+v", i, w, p)
		}
	}
}

func TestModifier(t *testing.T) {
	g, _ := raster.NewGrid(1, 1, "")
	heat := constant(t, g, 0, 1, 0.1)
	cold := constant(t, g, 0, 1, 0.2)
	water := constant(t, g, 0, 1, 0.3)

	if Modifier(crop.Optimal, heat, cold, water) != nil {
		t.Error("optimal scenario should have no modifier")
	}
	for s, want := range map[crop.Scenario]float64{
		crop.HeatLimited:  0.1,
		crop.ColdLimited:  0.2,
		crop.WaterLimited: 0.3,
	} {
		m := Modifier(s, heat, cold, water)
		if m == nil || m.Frame(0).Raster.Pixel(0) != raster.Some(want) {
			t.Errorf("%s: expected modifier %v", s, want)
		}
	}
}

func TestVegetativeBiomassAndYield(t *testing.T) {
	g, _ := raster.NewGrid(1, 2, "")
	ph := constant(t, g, 0, 9, 3)
	peak, err := raster.New(g, []float64{raster.Millis(dayN(4)), 0}, []bool{true, false})
	if err != nil {
		t.Fatal(err)
	}

	vb := VegetativeBiomass(ph, peak, 0.01)
	// days 0..4 inclusive
	if p := vb.Pixel(0); !p.OK || math.Abs(p.V-0.01*5*3) > epsilon {
		t.Errorf("expected vegetative biomass %v, got %+v", 0.15, p)
	}

	y := Yield(ph, peak, vb)
	// days 4..8 inclusive, each adding the vegetative biomass
	if p := y.Pixel(0); !p.OK || math.Abs(p.V-(5*3+5*0.15)) > epsilon {
		t.Errorf("expected yield %v, got %+v", 15.75, p)
	}

	if vb.Pixel(1).OK || y.Pixel(1).OK {
		t.Error("masked peak should give masked biomass and yield")
	}
}

func TestComputeWaterIndexOneMatchesOptimal(t *testing.T) {
	g, _ := raster.NewGrid(1, 1, "")
	lai := constant(t, g, 0, 30, 1.5)
	gsr := constant(t, g, 0, 30, 18)
	ftemp := constant(t, g, 0, 30, 0.7)
	ones := constant(t, g, 0, 30, 1)
	peak := raster.Constant(g, dayN(12))
	v := variables(g)

	optimal := Compute(lai, gsr, ftemp, nil, peak, v)
	water := Compute(lai, gsr, ftemp, &ones, peak, v)

	if optimal.Yield.Pixel(0) != water.Yield.Pixel(0) {
		t.Errorf("expected identical yields, got %+v and %+v", optimal.Yield.Pixel(0), water.Yield.Pixel(0))
	}
	if !optimal.Yield.Pixel(0).OK || optimal.Yield.Pixel(0).V <= 0 {
		t.Errorf("expected a positive yield, got %+v", optimal.Yield.Pixel(0))
	}
}
