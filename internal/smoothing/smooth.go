package smoothing

import (
	"time"

	"gonum.org/v1/gonum/interp"

	"github.com/chrissnell/cropyield/pkg/raster"
)

// Interpolate resamples a pixel's samples onto days by piecewise-linear
// interpolation between consecutive valid samples. Days before the first or
// after the last valid sample are left masked.
func Interpolate(times []time.Time, vals []raster.Value, days []time.Time, out []raster.Value) {
	var xs, ys []float64
	for i, v := range vals {
		if v.OK {
			xs = append(xs, float64(times[i].Unix()))
			ys = append(ys, v.V)
		}
	}
	switch len(xs) {
	case 0:
		return
	case 1:
		for d, day := range days {
			if float64(day.Unix()) == xs[0] {
				out[d] = raster.Some(ys[0])
			}
		}
		return
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		// times are strictly increasing, so Fit only fails on bad input
		return
	}
	first, last := xs[0], xs[len(xs)-1]
	for d, day := range days {
		x := float64(day.Unix())
		if x < first || x > last {
			continue
		}
		out[d] = raster.Some(pl.Predict(x))
	}
}

// Smooth filters every pixel of raw with the upper-envelope filter and
// interpolates the result to one value per day. Each pixel only sees its own
// valid samples; pixels with too few samples for the SG kernel stay masked.
func Smooth(raw raster.Series, days []time.Time, p Params) (raster.Series, error) {
	trend, sg, err := p.normalized()
	if err != nil {
		return raster.Series{}, err
	}

	kernel := func(times []time.Time, in []raster.Value, out []raster.Value) {
		var ts []time.Time
		var vs []float64
		for i, v := range in {
			if v.OK {
				ts = append(ts, times[i])
				vs = append(vs, v.V)
			}
		}
		if len(vs) == 0 {
			return
		}

		fit, ok := UpperEnvelope(vs, trend, sg, p.MaxIterations)
		filtered := make([]raster.Value, len(fit))
		for i := range fit {
			if ok[i] {
				filtered[i] = raster.Some(fit[i])
			}
		}
		Interpolate(ts, filtered, days, out)
	}
	return raster.ApplyAlongTime(raw, days, kernel), nil
}
