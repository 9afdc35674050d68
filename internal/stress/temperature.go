// Package stress derives the daily stress scalars that modulate
// photosynthesis: temperature, heat, cold and water stress, plus the
// soil-temperature constraint on the start of the season.
package stress

import (
	"github.com/chrissnell/cropyield/internal/crop"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Weather holds the daily weather series of a season. PET is a daily sum and
// may be reported with either sign; only its magnitude is used.
type Weather struct {
	TAvg     raster.Series
	TMin     raster.Series
	TMax     raster.Series
	TMinSoil raster.Series
	PET      raster.Series
	Precip   raster.Series
	GSR      raster.Series
}

// Temperature is the triangular temperature response: 0 at or below tbase,
// rising to 1 at topt and back to 0 at tmax.
func Temperature(t, tbase, topt, tmax float64) float64 {
	switch {
	case t <= tbase || t >= tmax:
		return 0
	case t <= topt:
		return (t - tbase) / (topt - tbase)
	default:
		return (tmax - t) / (tmax - topt)
	}
}

// Heat is 1 up to the heat threshold and falls linearly to 0 at limit.
func Heat(tmax, threshold, limit float64) float64 {
	switch {
	case tmax <= threshold:
		return 1
	case tmax >= limit:
		return 0
	default:
		return (limit - tmax) / (limit - threshold)
	}
}

// Cold is 1 down to the cold threshold and falls linearly to 0 at limit.
func Cold(tmin, threshold, limit float64) float64 {
	switch {
	case tmin >= threshold:
		return 1
	case tmin <= limit:
		return 0
	default:
		return (tmin - limit) / (threshold - limit)
	}
}

// FTemp computes the daily temperature stress from mean air temperature
func FTemp(tavg raster.Series, v crop.Variables) raster.Series {
	return tavg.Map(func(f raster.Frame) *raster.Raster {
		return raster.ZipN(func(p []float64) float64 {
			return Temperature(p[0], p[1], p[2], p[3])
		}, f.Raster, v.Tbase, v.Topt, v.Tmax)
	})
}

// FHeat computes the daily heat stress from maximum air temperature
func FHeat(tmax raster.Series, v crop.Variables) raster.Series {
	return tmax.Map(func(f raster.Frame) *raster.Raster {
		return raster.ZipN(func(p []float64) float64 {
			return Heat(p[0], p[1], p[2])
		}, f.Raster, v.TextHeat, v.HeatLimit)
	})
}

// FCold computes the daily cold stress from minimum air temperature
func FCold(tmin raster.Series, v crop.Variables) raster.Series {
	return tmin.Map(func(f raster.Frame) *raster.Raster {
		return raster.ZipN(func(p []float64) float64 {
			return Cold(p[0], p[1], p[2])
		}, f.Raster, v.TextCold, v.ColdLimit)
	})
}
