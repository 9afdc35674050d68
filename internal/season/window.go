// Package season resolves the season date window from configuration and
// aligns the vegetation and weather series onto it.
package season

import (
	"fmt"
	"time"

	"github.com/chrissnell/cropyield/pkg/raster"
)

// SowingWindow is the fixed length, in days, of the soil-temperature moving
// average. The weather moving window may not be shorter.
const SowingWindow = 7

// MinSeasonMonths is the shortest season that leaves a non-empty peak search
const MinSeasonMonths = 2

// Window holds the dates every stage works against. All bounds named Stop
// are exclusive.
type Window struct {
	// Ref is the first day of the configured year and month
	Ref time.Time
	// Start is Ref minus the moving window; weather is needed from here
	Start time.Time
	// Stop is Ref plus the season length
	Stop time.Time
	// PeakStop excludes the last month of the season from the peak search
	PeakStop time.Time

	MovingWindow int
}

// Resolve computes the season window. Invalid values are reported as
// *ConfigurationError.
func Resolve(year, month, seasonMonths, movingWindow int) (Window, error) {
	if year < 1 {
		return Window{}, &ConfigurationError{Param: "year", Reason: fmt.Sprintf("%d is not a valid year", year)}
	}
	if month < 1 || month > 12 {
		return Window{}, &ConfigurationError{Param: "month", Reason: fmt.Sprintf("%d is outside 1..12", month)}
	}
	// The last month is excluded from the peak search, so a one-month
	// season has no peak candidates at all.
	if seasonMonths < MinSeasonMonths || seasonMonths > 12 {
		return Window{}, &ConfigurationError{
			Param:  "season-months",
			Reason: fmt.Sprintf("%d produces an empty or invalid date range (want %d..12)", seasonMonths, MinSeasonMonths),
		}
	}
	if movingWindow < SowingWindow {
		return Window{}, &ConfigurationError{
			Param:  "moving-window",
			Reason: fmt.Sprintf("%d days is shorter than the %d-day sowing window", movingWindow, SowingWindow),
		}
	}

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	stop := ref.AddDate(0, seasonMonths, 0)
	return Window{
		Ref:          ref,
		Start:        ref.AddDate(0, 0, -movingWindow),
		Stop:         stop,
		PeakStop:     stop.AddDate(0, -1, 0),
		MovingWindow: movingWindow,
	}, nil
}

// Days returns every UTC midnight in [start, stop)
func Days(start, stop time.Time) []time.Time {
	var days []time.Time
	for d := start; d.Before(stop); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// SeasonDays returns every day in [Ref, Stop)
func (w Window) SeasonDays() []time.Time {
	return Days(w.Ref, w.Stop)
}

func spanOf(s raster.Series) Span {
	if s.Len() == 0 {
		return Span{}
	}
	return Span{First: s.First(), Last: s.Last()}
}

// Align restricts vegetation to [Ref, Stop) and weather to [Start, Stop) and
// verifies that the two overlap inside the season.
func Align(vegetation, weather raster.Series, w Window) (raster.Series, raster.Series, error) {
	veg := vegetation.Between(w.Ref, w.Stop)
	wx := weather.Between(w.Start, w.Stop)

	fail := func(reason string) error {
		return &AlignmentError{
			Window:     w,
			Vegetation: spanOf(vegetation),
			Weather:    spanOf(weather),
			Reason:     reason,
		}
	}

	if veg.Len() == 0 {
		return raster.Series{}, raster.Series{}, fail("no vegetation inside the season")
	}
	if wx.Len() == 0 {
		return raster.Series{}, raster.Series{}, fail("no weather inside the season")
	}
	if wx.Last().Before(veg.First()) || veg.Last().Before(wx.First()) {
		return raster.Series{}, raster.Series{}, fail("vegetation and weather do not overlap")
	}
	if vegetation.Grid() != weather.Grid() {
		return raster.Series{}, raster.Series{}, fail("vegetation and weather are on different grids")
	}
	return veg, wx, nil
}
