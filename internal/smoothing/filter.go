// Package smoothing denoises raw vegetation-index series with a
// Savitzky-Golay upper-envelope filter and resamples them to a daily series.
package smoothing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultTrendKernel is the long-term trend kernel, SG parameters (7,7,0,2)
var DefaultTrendKernel = []float64{
	-0.070588261, -0.011764720, 0.038009040, 0.078733027, 0.11040724, 0.13303168, 0.14660634,
	0.15113123,
	0.14660634, 0.13303168, 0.11040724, 0.078733027, 0.038009040, -0.011764720, -0.070588261,
}

// DefaultSGKernel is the fitting kernel, SG parameters (4,4,0,5)
var DefaultSGKernel = []float64{
	0.034965038, -0.12820521, 0.069930017, 0.31468537,
	0.41724950,
	0.31468537, 0.069930017, -0.12820521, 0.034965038,
}

// Params configures the filter
type Params struct {
	// TrendKernel estimates the long-term trend used to flag
	// cloud-depressed samples
	TrendKernel []float64

	// SGKernel is applied iteratively to fit the upper envelope
	SGKernel []float64

	// MaxIterations bounds the envelope fitting loop
	MaxIterations int
}

// DefaultParams returns the kernels and iteration bound used by CrYP
func DefaultParams() Params {
	return Params{
		TrendKernel:   DefaultTrendKernel,
		SGKernel:      DefaultSGKernel,
		MaxIterations: 10,
	}
}

// normalized checks that both kernels are usable and returns copies scaled
// to unit sum.
func (p Params) normalized() (trend, sg []float64, err error) {
	norm := func(name string, k []float64) ([]float64, error) {
		if len(k) == 0 || len(k)%2 == 0 {
			return nil, fmt.Errorf("%s kernel must have a positive odd length, got %d", name, len(k))
		}
		sum := floats.Sum(k)
		if math.Abs(sum) < 1e-9 {
			return nil, fmt.Errorf("%s kernel sums to zero", name)
		}
		out := make([]float64, len(k))
		copy(out, k)
		floats.Scale(1/sum, out)
		return out, nil
	}
	if p.MaxIterations < 1 {
		return nil, nil, fmt.Errorf("max iterations must be positive, got %d", p.MaxIterations)
	}
	if trend, err = norm("trend", p.TrendKernel); err != nil {
		return nil, nil, err
	}
	if sg, err = norm("SG", p.SGKernel); err != nil {
		return nil, nil, err
	}
	return trend, sg, nil
}

// convolve applies kernel centred on every sample. Samples whose window runs
// past either end keep their input value and are reported as incomplete.
func convolve(data, kernel []float64) (out []float64, complete []bool) {
	n := len(data)
	half := len(kernel) / 2
	out = make([]float64, n)
	complete = make([]bool, n)
	for i := 0; i < n; i++ {
		if i < half || i+half >= n {
			out[i] = data[i]
			continue
		}
		out[i] = floats.Dot(kernel, data[i-half:i+half+1])
		complete[i] = true
	}
	return out, complete
}

// UpperEnvelope fits the upper envelope of a noisy series (Chen et al.,
// 2004). Samples below the long-term trend are treated as contaminated and
// pulled up; the SG fit is then iterated on max(raw, fit) while the
// weighted fitting-effect index keeps decreasing. trend and sg must be
// normalized kernels. The returned slice marks samples whose SG window was
// incomplete as invalid.
func UpperEnvelope(raw, trend, sg []float64, maxIter int) (fit []float64, valid []bool) {
	n := len(raw)
	if n == 0 {
		return nil, nil
	}

	tr, _ := convolve(raw, trend)
	dmax := 0.0
	for i := range raw {
		if d := tr[i] - raw[i]; d > dmax {
			dmax = d
		}
	}
	weights := make([]float64, n)
	cur := make([]float64, n)
	for i := range raw {
		weights[i] = 1
		cur[i] = raw[i]
		if d := tr[i] - raw[i]; d > 0 {
			if dmax > 0 {
				weights[i] = 1 - d/dmax
			}
			cur[i] = tr[i]
		}
	}

	bestF := math.Inf(1)
	for k := 0; k < maxIter; k++ {
		next, complete := convolve(cur, sg)
		effect := 0.0
		for i := range raw {
			effect += math.Abs(next[i]-raw[i]) * weights[i]
		}
		if effect >= bestF {
			break
		}
		bestF, fit, valid = effect, next, complete
		for i := range cur {
			cur[i] = math.Max(raw[i], next[i])
		}
	}
	return fit, valid
}
