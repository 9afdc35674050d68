package stress

import (
	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// SoilThreshold is the minimum mean soil temperature, in °C, for sowing
const SoilThreshold = 10.0

// Onset finds, per pixel, the first season day whose trailing 7-day mean
// minimum soil temperature reaches SoilThreshold. Pixels that never warm up
// are left unselected.
func Onset(soil raster.Series, w season.Window) raster.Mosaic {
	mean := RollingMean(soil, season.SowingWindow).Between(w.Ref, w.Stop)
	key := mean.Map(func(f raster.Frame) *raster.Raster {
		warm := raster.Test(f.Raster, func(v float64) bool {
			return v >= SoilThreshold
		})
		// earlier days score higher
		return raster.Constant(f.Raster.Grid(), f.Time).Map(func(ms float64) float64 {
			return -ms
		}).Where(warm)
	})
	return raster.Select(key)
}
