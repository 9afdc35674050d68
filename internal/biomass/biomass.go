// Package biomass implements the light-use-efficiency model: daily
// photosynthate from radiation and LAI, the vegetative biomass accumulated
// up to the peak and the yield accumulated after it.
package biomass

import (
	"math"

	"github.com/chrissnell/cropyield/internal/crop"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Modifier picks the stress series that modulates photosynthesis for a
// scenario. Optimal has no modifier and returns nil.
func Modifier(s crop.Scenario, fheat, fcold, water raster.Series) *raster.Series {
	switch s {
	case crop.HeatLimited:
		return &fheat
	case crop.ColdLimited:
		return &fcold
	case crop.WaterLimited:
		return &water
	}
	return nil
}

// Photosynthate computes the daily photosynthate for every weather day in
// [first LAI day, last LAI day). Days without an LAI frame use LAI 0. Days
// where fTemp or the modifier has no sample are masked.
func Photosynthate(lai, gsr, ftemp raster.Series, modifier *raster.Series, v crop.Variables) raster.Series {
	if lai.Len() == 0 {
		empty, _ := raster.NewSeries(gsr.Grid(), nil)
		return empty
	}
	days := gsr.Between(lai.First(), lai.Last())
	zero := raster.Fill(gsr.Grid(), 0)

	return days.Map(func(f raster.Frame) *raster.Raster {
		masked := raster.Masked(f.Raster.Grid())
		leaf, ok := lai.Lookup(f.Time)
		if !ok {
			leaf = zero
		}
		temp, ok := ftemp.Lookup(f.Time)
		if !ok {
			return masked
		}
		ph := raster.ZipN(func(p []float64) float64 {
			par := p[0] / 2
			npp := par * (1 - math.Exp(-v.K*p[1]))
			return npp * v.RUE * p[2]
		}, f.Raster, leaf, temp)

		if modifier == nil {
			return ph
		}
		m, ok := modifier.Lookup(f.Time)
		if !ok {
			return masked
		}
		return raster.Zip(ph, m, func(ph, m float64) float64 {
			return ph * m
		})
	})
}

// accumulate sums ph + extra over every day for which keep holds. Other
// days contribute 0.
func accumulate(ph raster.Series, peak *raster.Raster, extra *raster.Raster, keep func(t, peak float64) bool) *raster.Raster {
	return raster.Sum(ph.Map(func(f raster.Frame) *raster.Raster {
		t := raster.Millis(f.Time)
		return raster.ZipN(func(p []float64) float64 {
			if !keep(t, p[1]) {
				return 0
			}
			return p[0] + p[2]
		}, f.Raster, peak, extra)
	}))
}

// VegetativeBiomass is the remobilized share of the photosynthate
// accumulated up to and including the peak day.
func VegetativeBiomass(ph raster.Series, peakMillis *raster.Raster, remobilization float64) *raster.Raster {
	zero := raster.Fill(ph.Grid(), 0)
	total := accumulate(ph, peakMillis, zero, func(t, peak float64) bool {
		return t <= peak
	})
	return total.Map(func(v float64) float64 {
		return remobilization * v
	})
}

// Yield accumulates the daily photosynthate plus the vegetative biomass over
// every day from the peak on.
func Yield(ph raster.Series, peakMillis, vegetative *raster.Raster) *raster.Raster {
	return accumulate(ph, peakMillis, vegetative, func(t, peak float64) bool {
		return t >= peak
	})
}

// Result holds the biomass products of a season
type Result struct {
	Photosynthate     raster.Series
	VegetativeBiomass *raster.Raster
	Yield             *raster.Raster
}

// Compute runs the whole biomass model
func Compute(lai, gsr, ftemp raster.Series, modifier *raster.Series, peakMillis *raster.Raster, v crop.Variables) Result {
	ph := Photosynthate(lai, gsr, ftemp, modifier, v)
	vb := VegetativeBiomass(ph, peakMillis, v.Remobilization)
	return Result{
		Photosynthate:     ph,
		VegetativeBiomass: vb,
		Yield:             Yield(ph, peakMillis, vb),
	}
}
