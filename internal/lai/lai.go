// Package lai estimates leaf area index from the vegetation peak and the
// fractional cover series.
package lai

import (
	"math"

	"github.com/chrissnell/cropyield/internal/crop"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Peak converts the peak vegetation index into peak LAI with the empirical
// regression of the archetype. Out-of-domain logarithms yield NaN, which
// masks the pixel.
func Peak(a crop.Archetype, v float64) float64 {
	switch a {
	case crop.Maize:
		return 8.553*v - 0.054
	default:
		return math.Log((1-v/1.0866)/3.379) / -0.3994
	}
}

// PeakRaster applies Peak to every pixel
func PeakRaster(a crop.Archetype, peakValue *raster.Raster) *raster.Raster {
	return peakValue.Map(func(v float64) float64 {
		return Peak(a, v)
	})
}

// Daily scales the peak LAI by the FVC of each day, clamped at 0.
func Daily(fvc raster.Series, peak *raster.Raster) raster.Series {
	return fvc.Map(func(f raster.Frame) *raster.Raster {
		return raster.Zip(f.Raster, peak, func(c, l float64) float64 {
			return math.Max(0, c*l)
		})
	})
}
