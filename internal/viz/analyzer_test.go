// ABOUTME: Tests for the spectrum analyzer
// ABOUTME: Covers bin folding, tone localization, and empty windows
package viz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestSpectrumEmptyWindow(t *testing.T) {
	a := NewAnalyzer(16)
	assert.Nil(t, a.Spectrum(nil))
	assert.Nil(t, a.Spectrum([]float64{0.5}))
}

func TestSpectrumBinCount(t *testing.T) {
	a := NewAnalyzer(16)
	out := a.Spectrum(sine(440, 48000, 1024))
	assert.Len(t, out, 16)
}

func TestSpectrumNormalizedToPeak(t *testing.T) {
	a := NewAnalyzer(16)
	out := a.Spectrum(sine(440, 48000, 1024))

	var peak float64
	for _, v := range out {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 1.0, peak, 1e-9)
}

func TestSpectrumLocalizesLowAndHighTones(t *testing.T) {
	a := NewAnalyzer(8)

	// A tone near the bottom of the band peaks in the first bin; a tone
	// near Nyquist peaks in the last
	low := a.Spectrum(sine(500, 48000, 2048))
	assert.InDelta(t, 1.0, low[0], 1e-9)

	high := a.Spectrum(sine(22000, 48000, 2048))
	assert.InDelta(t, 1.0, high[len(high)-1], 1e-9)
}

func TestSpectrumSilenceIsFlat(t *testing.T) {
	a := NewAnalyzer(8)
	out := a.Spectrum(make([]float64, 1024))

	require.Len(t, out, 8)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestNewAnalyzerDefaultBins(t *testing.T) {
	assert.Equal(t, 16, NewAnalyzer(0).Bins())
	assert.Equal(t, 32, NewAnalyzer(32).Bins())
}
