package pipeline

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/cropyield/internal/crop"
	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Result is the output record of one season
type Result struct {
	Crop     crop.Archetype
	Scenario crop.Scenario
	Window   season.Window
	Grid     raster.Grid

	// Start and End are the refined crop window
	Start raster.DateRasters
	End   raster.DateRasters
	Peak  raster.DateRasters
	// CWS and CWE are the unrefined vegetation minima around the peak
	CWS raster.DateRasters
	CWE raster.DateRasters

	PeakValue         *raster.Raster
	PeakLAI           *raster.Raster
	VegetativeBiomass *raster.Raster
	Yield             *raster.Raster

	Summary Summary
}

// Summary describes the yield distribution over valid pixels
type Summary struct {
	Pixels int     `json:"pixels"`
	Valid  int     `json:"valid"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes the summary statistics of r's valid pixels
func Summarize(r *raster.Raster) Summary {
	vals := r.Valid()
	s := Summary{Pixels: r.Grid().Len(), Valid: len(vals)}
	if len(vals) == 0 {
		return s
	}
	s.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	return s
}

// Rasters returns every output raster keyed by its export name
func (r *Result) Rasters() map[string]*raster.Raster {
	out := map[string]*raster.Raster{
		"peak-value":         r.PeakValue,
		"peak-lai":           r.PeakLAI,
		"vegetative-biomass": r.VegetativeBiomass,
		"yield":              r.Yield,
	}
	dates := map[string]raster.DateRasters{
		"start": r.Start,
		"end":   r.End,
		"peak":  r.Peak,
		"cws":   r.CWS,
		"cwe":   r.CWE,
	}
	for name, d := range dates {
		out[name+"-millis"] = d.Millis
		out[name+"-date"] = d.Compact
		out[name+"-doy"] = d.DayOfYear
	}
	return out
}
