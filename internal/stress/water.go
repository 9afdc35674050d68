package stress

import (
	"math"
	"time"

	"github.com/chrissnell/cropyield/pkg/raster"
)

// RollingMean replaces every frame of s with the mean of the pixel's valid
// values over the trailing window of days calendar days ending on (and
// including) the frame's day. Windows at the start of the series use only the
// days available. A pixel with no valid value in its window is masked.
func RollingMean(s raster.Series, days int) raster.Series {
	span := time.Duration(days) * 24 * time.Hour
	return raster.ApplyAlongTime(s, s.Times(), func(times []time.Time, in []raster.Value, out []raster.Value) {
		lo := 0
		sum, n := 0.0, 0
		for i, t := range times {
			if in[i].OK {
				sum += in[i].V
				n++
			}
			for !times[lo].After(t.Add(-span)) {
				if in[lo].OK {
					sum -= in[lo].V
					n--
				}
				lo++
			}
			if n > 0 {
				out[i] = raster.Some(sum / float64(n))
			}
		}
	})
}

// WaterBalance computes the agro-hydrological water index (awi), the rolling
// mean of the daily balance P - |PET|, and the matching rolling mean of |PET|
// used to normalize it. Days missing either input are masked.
func WaterBalance(precip, pet raster.Series, movingWindow int) (awi, petMean raster.Series) {
	absPET := pet.Map(func(f raster.Frame) *raster.Raster {
		return f.Raster.Map(math.Abs)
	})
	balance := precip.Map(func(f raster.Frame) *raster.Raster {
		e, ok := absPET.Lookup(f.Time)
		if !ok {
			return raster.Masked(f.Raster.Grid())
		}
		return raster.Zip(f.Raster, e, func(p, e float64) float64 {
			return p - e
		})
	})
	return RollingMean(balance, movingWindow), RollingMean(absPET, movingWindow)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// gate resamples daily onto the timeline of fvc. A day is masked where the
// FVC is masked or where daily has no frame.
func gate(fvc raster.Series, daily func(t time.Time) (*raster.Raster, bool)) raster.Series {
	return fvc.Map(func(f raster.Frame) *raster.Raster {
		r, ok := daily(f.Time)
		if !ok {
			return raster.Masked(f.Raster.Grid())
		}
		return raster.Zip(f.Raster, r, func(_, v float64) float64 {
			return v
		})
	})
}

// WaterStress computes the relative soil water content proxy
// RSWC = clamp01(1 + awi/PETmean) on the FVC timeline. Where PETmean is 0 the
// crop is not water limited and RSWC is 1.
func WaterStress(fvc, awi, petMean raster.Series) raster.Series {
	return gate(fvc, func(t time.Time) (*raster.Raster, bool) {
		a, ok := awi.Lookup(t)
		if !ok {
			return nil, false
		}
		e, ok := petMean.Lookup(t)
		if !ok {
			return nil, false
		}
		return raster.Zip(a, e, func(a, e float64) float64 {
			if e == 0 {
				return 1
			}
			return clamp01(1 + a/e)
		}), true
	})
}

// WaterIndex uses a pre-normalized water index series as the water stress.
// Values are clamped to [0,1] and gated on the FVC timeline like WaterStress.
func WaterIndex(fvc, index raster.Series) raster.Series {
	return gate(fvc, func(t time.Time) (*raster.Raster, bool) {
		r, ok := index.Lookup(t)
		if !ok {
			return nil, false
		}
		return r.Map(clamp01), true
	})
}
