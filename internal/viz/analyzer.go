// ABOUTME: Spectrum analysis of the audible sample window
// ABOUTME: Hann-windowed FFT magnitudes folded into display bins
package viz

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Analyzer folds FFT magnitudes of the audible window into a fixed
// number of display bins
type Analyzer struct {
	bins int
}

// NewAnalyzer creates an analyzer producing the given number of bins
func NewAnalyzer(bins int) *Analyzer {
	if bins <= 0 {
		bins = 16
	}
	return &Analyzer{bins: bins}
}

// Bins returns the number of display bins
func (a *Analyzer) Bins() int {
	return a.bins
}

// Spectrum computes per-bin magnitudes in [0, 1] for a mono sample
// window. An empty window (nothing audible) yields nil.
func (a *Analyzer) Spectrum(window []float64) []float64 {
	if len(window) < 2 {
		return nil
	}

	windowed := make([]float64, len(window))
	for i, s := range window {
		windowed[i] = s * hann(i, len(window))
	}

	spectrum := fft.FFTReal(windowed)

	// Only the first half carries information for real input; drop the
	// DC term so a constant offset does not swamp the display
	half := len(spectrum) / 2
	mags := make([]float64, half)
	for i := 1; i <= half; i++ {
		mags[i-1] = cmplx.Abs(spectrum[i]) / float64(len(window))
	}

	return a.fold(mags)
}

// fold averages magnitudes into display bins and normalizes to the
// loudest bin
func (a *Analyzer) fold(mags []float64) []float64 {
	out := make([]float64, a.bins)
	if len(mags) == 0 {
		return out
	}

	per := float64(len(mags)) / float64(a.bins)
	for b := 0; b < a.bins; b++ {
		start := int(float64(b) * per)
		end := int(float64(b+1) * per)
		if end <= start {
			end = start + 1
		}
		if end > len(mags) {
			end = len(mags)
		}

		var sum float64
		for i := start; i < end; i++ {
			sum += mags[i]
		}
		out[b] = sum / float64(end-start)
	}

	var peak float64
	for _, v := range out {
		if v > peak {
			peak = v
		}
	}
	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out
}

func hann(i, n int) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
}
