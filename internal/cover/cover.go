// Package cover normalizes the vegetation series into fractional vegetation
// cover (FVC) and refines the crop window on it.
package cover

import (
	"math"

	"github.com/chrissnell/cropyield/internal/phenology"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Threshold is the FVC below which the crop is considered absent
const Threshold = 0.21

// Result holds the FVC series and the refined crop window
type Result struct {
	FVC raster.Series
	// Start is the last day at or before the peak with FVC <= Threshold
	Start raster.Mosaic
	// End is the first day at or after the peak with FVC <= Threshold
	End raster.Mosaic
}

// FVC scales veg between the pre-peak minimum and the peak inside the crop
// window [CWS, CWE] and is 0 outside it. Pixels where the peak equals the
// minimum have no usable range and are masked.
func FVC(veg raster.Series, ph phenology.Result) raster.Series {
	cws := ph.CWS.Millis()
	cwe := ph.CWE.Millis()
	return veg.Map(func(f raster.Frame) *raster.Raster {
		t := raster.Millis(f.Time)
		return raster.ZipN(func(p []float64) float64 {
			v, peak, low, start, end := p[0], p[1], p[2], p[3], p[4]
			if peak == low {
				return math.NaN()
			}
			if t < start || t > end {
				return 0
			}
			return math.Max(0, math.Min(1, (v-low)/(peak-low)))
		}, f.Raster, ph.PeakValue, ph.MinValue, cws, cwe)
	})
}

// Refine finds the refined crop window around the peak on the FVC series.
func Refine(fvc raster.Series, peak raster.Mosaic) (start, end raster.Mosaic) {
	peakMillis := peak.Millis()
	candidates := func(f raster.Frame, side func(peak, t float64) bool) raster.Mask {
		t := raster.Millis(f.Time)
		bare := raster.Test(f.Raster, func(v float64) bool { return v <= Threshold })
		return bare.And(raster.Test(peakMillis, func(ms float64) bool { return side(ms, t) }))
	}

	// latest candidate wins on the rising side, earliest on the falling side
	start = raster.Select(fvc.Map(func(f raster.Frame) *raster.Raster {
		c := candidates(f, func(peak, t float64) bool { return t <= peak })
		return raster.Constant(f.Raster.Grid(), f.Time).Where(c)
	}))
	end = raster.Select(fvc.Map(func(f raster.Frame) *raster.Raster {
		c := candidates(f, func(peak, t float64) bool { return t >= peak })
		return raster.Fill(f.Raster.Grid(), -raster.Millis(f.Time)).Where(c)
	}))
	return start, end
}

// Compute runs FVC and Refine
func Compute(veg raster.Series, ph phenology.Result) Result {
	fvc := FVC(veg, ph)
	start, end := Refine(fvc, ph.Peak)
	return Result{FVC: fvc, Start: start, End: end}
}
