// Package pipeline runs a full CrYP season: it aligns the inputs, smooths
// the vegetation, derives the stresses and phenometrics and feeds them into
// the biomass model.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/cropyield/internal/biomass"
	"github.com/chrissnell/cropyield/internal/config"
	"github.com/chrissnell/cropyield/internal/cover"
	"github.com/chrissnell/cropyield/internal/lai"
	"github.com/chrissnell/cropyield/internal/phenology"
	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/internal/smoothing"
	"github.com/chrissnell/cropyield/internal/stress"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Inputs are the rasters of one run. Exactly one of Vegetation and
// DailyVegetation is used: a non-nil DailyVegetation skips smoothing.
type Inputs struct {
	Grid raster.Grid

	// Vegetation is the raw, irregular vegetation-index series
	Vegetation raster.Series
	// DailyVegetation is an already smoothed daily series
	DailyVegetation *raster.Series

	Weather stress.Weather

	// WaterIndex replaces the computed RSWC in the water-limited scenario
	WaterIndex *raster.Series
}

// Runner executes seasons
type Runner struct {
	smoothing smoothing.Params
	logger    *zap.SugaredLogger
}

// NewRunner creates a runner that logs to logger. A nil logger discards
// all output.
func NewRunner(logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{smoothing: smoothing.DefaultParams(), logger: logger}
}

// WithSmoothing overrides the smoothing kernels
func (r *Runner) WithSmoothing(p smoothing.Params) *Runner {
	out := *r
	out.smoothing = p
	return &out
}

// Run executes the pipeline. Invalid configuration is reported as
// *season.ConfigurationError before any raster is touched; inputs that do
// not cover the season are reported as *season.AlignmentError.
func (r *Runner) Run(ctx context.Context, cfg config.Config, in Inputs) (*Result, error) {
	params, err := cfg.Resolve(in.Grid)
	if err != nil {
		return nil, err
	}
	w := params.Window
	log := r.logger.With("crop", params.Crop, "scenario", params.Scenario, "season", w.Ref.Format("2006-01"))

	stage := func(name string, start time.Time) error {
		log.Debugw("stage complete", "stage", name, "elapsed", time.Since(start))
		return ctx.Err()
	}

	start := time.Now()
	daily, wx, err := r.vegetation(in, w)
	if err != nil {
		return nil, err
	}
	if err := stage("vegetation", start); err != nil {
		return nil, err
	}

	start = time.Now()
	ftemp := stress.FTemp(wx.TAvg, params.Variables)
	fheat := stress.FHeat(wx.TMax, params.Variables)
	fcold := stress.FCold(wx.TMin, params.Variables)
	awi, petMean := stress.WaterBalance(wx.Precip, wx.PET, w.MovingWindow)
	onset := stress.Onset(wx.TMinSoil, w)
	if err := stage("stress", start); err != nil {
		return nil, err
	}

	start = time.Now()
	ph := phenology.Extract(daily, onset.Millis(), w)
	cv := cover.Compute(daily, ph)
	if err := stage("phenology", start); err != nil {
		return nil, err
	}

	start = time.Now()
	var water raster.Series
	if in.WaterIndex != nil {
		if err := sameGrid("water index", *in.WaterIndex, in.Grid, w); err != nil {
			return nil, err
		}
		water = stress.WaterIndex(cv.FVC, *in.WaterIndex)
	} else {
		water = stress.WaterStress(cv.FVC, awi, petMean)
	}
	peakLAI := lai.PeakRaster(params.Crop, ph.PeakValue)
	dailyLAI := lai.Daily(cv.FVC, peakLAI)
	bio := biomass.Compute(dailyLAI, wx.GSR, ftemp,
		biomass.Modifier(params.Scenario, fheat, fcold, water),
		ph.Peak.Millis(), params.Variables)
	if err := stage("biomass", start); err != nil {
		return nil, err
	}

	out := params.OutputGrid
	res := &Result{
		Crop:     params.Crop,
		Scenario: params.Scenario,
		Window:   w,
		Grid:     out,

		Start: resampleDates(cv.Start.Dates(), out),
		End:   resampleDates(cv.End.Dates(), out),
		Peak:  resampleDates(ph.Peak.Dates(), out),
		CWS:   resampleDates(ph.CWS.Dates(), out),
		CWE:   resampleDates(ph.CWE.Dates(), out),

		PeakValue:         ph.PeakValue.Resample(out),
		PeakLAI:           peakLAI.Resample(out),
		VegetativeBiomass: bio.VegetativeBiomass.Resample(out),
		Yield:             bio.Yield.Resample(out),
	}
	res.Summary = Summarize(res.Yield)

	log.Infow("season complete",
		"pixels", out.Len(),
		"masked", out.Len()-res.Summary.Valid,
		"peak-masked", out.Len()-res.Peak.Millis.ValidCount(),
		"window-masked", out.Len()-res.Start.Millis.ValidCount(),
		"mean-yield", res.Summary.Mean)
	return res, nil
}

// vegetation produces the daily season vegetation series and the weather
// restricted to the weather window.
func (r *Runner) vegetation(in Inputs, w season.Window) (raster.Series, stress.Weather, error) {
	var daily raster.Series
	if in.DailyVegetation != nil {
		daily = *in.DailyVegetation
	} else {
		var err error
		if daily, err = r.smooth(in, w); err != nil {
			return raster.Series{}, stress.Weather{}, err
		}
	}

	daily, tavg, err := season.Align(daily, in.Weather.TAvg, w)
	if err != nil {
		return raster.Series{}, stress.Weather{}, err
	}
	if err := sameGrid("vegetation", daily, in.Grid, w); err != nil {
		return raster.Series{}, stress.Weather{}, err
	}

	wx := stress.Weather{TAvg: tavg}
	vars := []struct {
		name string
		src  raster.Series
		dst  *raster.Series
	}{
		{"t-avg", tavg, &wx.TAvg},
		{"t-min", in.Weather.TMin, &wx.TMin},
		{"t-max", in.Weather.TMax, &wx.TMax},
		{"t-min-soil", in.Weather.TMinSoil, &wx.TMinSoil},
		{"pet", in.Weather.PET, &wx.PET},
		{"precip", in.Weather.Precip, &wx.Precip},
		{"gsr", in.Weather.GSR, &wx.GSR},
	}
	for _, v := range vars {
		_, s, err := season.Align(daily, v.src, w)
		if err != nil {
			return raster.Series{}, stress.Weather{}, fmt.Errorf("weather variable %s: %w", v.name, err)
		}
		if err := sameGrid("weather variable "+v.name, s, in.Grid, w); err != nil {
			return raster.Series{}, stress.Weather{}, err
		}
		*v.dst = s
	}
	return daily, wx, nil
}

// smooth turns the raw vegetation into one value per season day. Samples
// outside the season still anchor the filter at its edges; only the daily
// output is restricted to the season.
func (r *Runner) smooth(in Inputs, w season.Window) (raster.Series, error) {
	if _, _, err := season.Align(in.Vegetation, in.Weather.TAvg, w); err != nil {
		return raster.Series{}, err
	}
	if err := sameGrid("vegetation", in.Vegetation, in.Grid, w); err != nil {
		return raster.Series{}, err
	}
	r.logger.Debugw("smoothing vegetation", "samples", in.Vegetation.Len())
	daily, err := smoothing.Smooth(in.Vegetation, w.SeasonDays(), r.smoothing)
	if err != nil {
		return raster.Series{}, fmt.Errorf("smoothing vegetation: %w", err)
	}
	return daily, nil
}

// SmoothVegetation returns in with DailyVegetation replaced by the smoothed
// raw vegetation of the season configured in cfg. The raw series is kept.
func (r *Runner) SmoothVegetation(cfg config.Config, in Inputs) (Inputs, error) {
	params, err := cfg.Resolve(in.Grid)
	if err != nil {
		return Inputs{}, err
	}
	daily, err := r.smooth(in, params.Window)
	if err != nil {
		return Inputs{}, err
	}
	r.logger.Infow("smoothed vegetation",
		"frames", daily.Len(),
		"season", params.Window.Ref.Format("2006-01"))
	in.DailyVegetation = &daily
	return in, nil
}

func sameGrid(what string, s raster.Series, grid raster.Grid, w season.Window) error {
	if s.Grid() == grid {
		return nil
	}
	return &season.AlignmentError{
		Window: w,
		Reason: fmt.Sprintf("%s is on a %dx%d grid, expected %dx%d",
			what, s.Grid().Rows, s.Grid().Cols, grid.Rows, grid.Cols),
	}
}

func resampleDates(d raster.DateRasters, grid raster.Grid) raster.DateRasters {
	return raster.DateRasters{
		Millis:    d.Millis.Resample(grid),
		Compact:   d.Compact.Resample(grid),
		DayOfYear: d.DayOfYear.Resample(grid),
	}
}
