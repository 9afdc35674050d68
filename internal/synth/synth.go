// Package synth generates synthetic seasons with a known phenology for
// demos and end-to-end tests.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/internal/stress"
	"github.com/chrissnell/cropyield/pkg/raster"
	"github.com/chrissnell/cropyield/pkg/solar"
)

// DefaultSite is a lowland mid-latitude field
var DefaultSite = solar.Site{Latitude: 45, Longitude: 10, Altitude: 50}

// clearness scales clear-sky radiation to an average sky
const clearness = 0.75

// Options shapes a synthetic season
type Options struct {
	Grid raster.Grid
	// Window is the season to cover; weather starts at Window.Start
	Window season.Window
	// PeakDay is the offset from Window.Ref of the vegetation peak
	PeakDay int
	// Base and Amplitude set the vegetation range; pixel i peaks at
	// Base + Amplitude*(1 - 0.2*i/npix)
	Base      float64
	Amplitude float64
	// Cadence is the revisit interval of the raw series, in days
	Cadence int
	// CloudRate is the chance that a raw sample is cloud-depressed
	CloudRate float64
	// History is the number of days of raw samples generated before Ref and
	// after the last season day, at base vegetation
	History int
	// Masked lists pixels that never see vegetation
	Masked []int
	Seed   int64
	// Site sets the solar geometry of the generated radiation
	Site solar.Site
}

// DefaultOptions returns a three month maize-like season starting in April
func DefaultOptions(grid raster.Grid, year int) (Options, error) {
	w, err := season.Resolve(year, 4, 3, 7)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Grid:      grid,
		Window:    w,
		PeakDay:   45,
		Base:      0.2,
		Amplitude: 0.6,
		Cadence:   5,
		CloudRate: 0.15,
		History:   60,
		Seed:      1,
		Site:      DefaultSite,
	}, nil
}

// Season is a generated data set
type Season struct {
	Raw     raster.Series
	Daily   raster.Series
	Weather stress.Weather
}

// Profile is the noise-free vegetation of a pixel with the given peak value:
// a linear rise from base on the first day to the peak on peakDay and a
// linear decline back to base on the last day. Outside the season it stays
// at base.
func Profile(day, peakDay, lastDay int, base, peak float64) float64 {
	switch {
	case day <= 0 || day >= lastDay:
		return base
	case day <= peakDay:
		return base + (peak-base)*float64(day)/float64(peakDay)
	}
	return peak - (peak-base)*float64(day-peakDay)/float64(lastDay-peakDay)
}

// Generate builds the season described by o
func Generate(o Options) (Season, error) {
	days := o.Window.SeasonDays()
	last := len(days) - 1
	if o.PeakDay <= 0 || o.PeakDay >= last {
		return Season{}, fmt.Errorf("peak day %d is outside the season (1..%d)", o.PeakDay, last-1)
	}
	if o.Cadence < 1 {
		return Season{}, fmt.Errorf("cadence must be at least one day, got %d", o.Cadence)
	}
	if o.History < 0 {
		return Season{}, fmt.Errorf("history must not be negative, got %d", o.History)
	}

	npix := o.Grid.Len()
	masked := make([]bool, npix)
	for _, p := range o.Masked {
		if p < 0 || p >= npix {
			return Season{}, fmt.Errorf("masked pixel %d is outside the grid", p)
		}
		masked[p] = true
	}
	peaks := make([]float64, npix)
	for i := range peaks {
		peaks[i] = o.Base + o.Amplitude*(1-0.2*float64(i)/float64(npix))
	}

	rng := rand.New(rand.NewSource(o.Seed))
	var daily, raw []raster.Frame
	for d := -o.History; d <= last+o.History; d++ {
		day := o.Window.Ref.AddDate(0, 0, d)
		vals := make([]float64, npix)
		noisy := make([]float64, npix)
		valid := make([]bool, npix)
		for i := range vals {
			vals[i] = Profile(d, o.PeakDay, last, o.Base, peaks[i])
			noisy[i] = vals[i]
			if rng.Float64() < o.CloudRate {
				noisy[i] -= 0.1 + 0.3*rng.Float64()
			}
			valid[i] = !masked[i]
		}
		if d >= 0 && d <= last {
			r, err := raster.New(o.Grid, vals, valid)
			if err != nil {
				return Season{}, err
			}
			daily = append(daily, raster.Frame{Time: day, Raster: r})
		}

		if (d%o.Cadence+o.Cadence)%o.Cadence == 0 {
			nr, err := raster.New(o.Grid, noisy, valid)
			if err != nil {
				return Season{}, err
			}
			raw = append(raw, raster.Frame{Time: day, Raster: nr})
		}
	}

	s := Season{}
	var err error
	if s.Daily, err = raster.NewSeries(o.Grid, daily); err != nil {
		return Season{}, err
	}
	if s.Raw, err = raster.NewSeries(o.Grid, raw); err != nil {
		return Season{}, err
	}
	if s.Weather, err = Weather(o.Grid, o.Window, o.Site); err != nil {
		return Season{}, err
	}
	return s, nil
}

// Weather generates a warm, moderately dry weather series over the weather
// window of w. Temperatures follow a gentle seasonal cycle and global
// radiation is the clear-sky radiation of site under an average sky.
func Weather(grid raster.Grid, w season.Window, site solar.Site) (stress.Weather, error) {
	days := season.Days(w.Start, w.Stop)
	series := func(fn func(d int) float64) (raster.Series, error) {
		frames := make([]raster.Frame, len(days))
		for d, day := range days {
			frames[d] = raster.Frame{Time: day, Raster: raster.Fill(grid, fn(d))}
		}
		return raster.NewSeries(grid, frames)
	}
	cycle := func(d int) float64 {
		return math.Sin(2 * math.Pi * float64(d) / 365)
	}

	var wx stress.Weather
	vars := []struct {
		dst *raster.Series
		fn  func(d int) float64
	}{
		{&wx.TAvg, func(d int) float64 { return 20 + 4*cycle(d) }},
		{&wx.TMin, func(d int) float64 { return 13 + 4*cycle(d) }},
		{&wx.TMax, func(d int) float64 { return 28 + 4*cycle(d) }},
		{&wx.TMinSoil, func(d int) float64 { return 14 + 3*cycle(d) }},
		{&wx.PET, func(d int) float64 { return -(4 + cycle(d)) }},
		{&wx.Precip, func(d int) float64 { return 2.5 }},
		{&wx.GSR, func(d int) float64 { return clearness * site.DailyRadiation(days[d]) }},
	}
	for _, v := range vars {
		s, err := series(v.fn)
		if err != nil {
			return stress.Weather{}, err
		}
		*v.dst = s
	}
	return wx, nil
}
