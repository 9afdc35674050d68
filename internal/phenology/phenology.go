// Package phenology extracts the phenometric dates of a season from the
// daily vegetation series: the peak and the vegetation minima before and
// after it.
package phenology

import (
	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Result holds the per-pixel phenometrics. Pixels without a candidate are
// left unselected in the corresponding mosaic.
type Result struct {
	// Peak is the maximum vegetation day, searched before w.PeakStop
	Peak raster.Mosaic
	// CWS is the minimum vegetation day between the onset and the peak
	CWS raster.Mosaic
	// CWE is the minimum vegetation day from the peak to the end of the series
	CWE raster.Mosaic

	PeakValue *raster.Raster
	MinValue  *raster.Raster
}

// Extract computes the phenometrics of veg over the season. onset carries the
// earliest sowing day per pixel as epoch milliseconds; a masked onset leaves
// the crop window undefined.
//
// The post-peak search runs to the end of the series while the peak search
// stops a month earlier, so CWE may land in the last month of the season.
func Extract(veg raster.Series, onset *raster.Raster, w season.Window) Result {
	veg = veg.Between(w.Ref, w.Stop)

	peak := raster.Select(veg.Between(w.Ref, w.PeakStop))
	peakMillis := peak.Millis()

	// negate so that the mosaic maximum is the vegetation minimum
	minimum := func(in func(t float64) raster.Mask) raster.Mosaic {
		return raster.Select(veg.Map(func(f raster.Frame) *raster.Raster {
			return f.Raster.Map(func(v float64) float64 {
				return -v
			}).Where(in(raster.Millis(f.Time)))
		}))
	}

	cws := minimum(func(t float64) raster.Mask {
		afterOnset := raster.Test(onset, func(ms float64) bool { return ms <= t })
		beforePeak := raster.Test(peakMillis, func(ms float64) bool { return ms >= t })
		return afterOnset.And(beforePeak)
	})
	cwe := minimum(func(t float64) raster.Mask {
		return raster.Test(peakMillis, func(ms float64) bool { return ms <= t })
	})

	return Result{
		Peak:      peak,
		CWS:       cws,
		CWE:       cwe,
		PeakValue: peak.Take(veg),
		MinValue:  cws.Take(veg),
	}
}
