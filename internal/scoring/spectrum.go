package scoring

import "math"

const (
	// SpectrumSize is the number of samples in a resonance spectrum.
	SpectrumSize = 11
	spectrumHalf = SpectrumSize / 2
	bandwidth    = 0.1
)

// Spectrum samples a gaussian around center at offsets -5..5 times the
// bandwidth. Non-positive frequencies sample as 0. Index 0 is the leftmost offset.
func Spectrum(center float64) []float64 {
	out := make([]float64, SpectrumSize)
	for i := range out {
		freq := center + float64(i-spectrumHalf)*bandwidth
		if freq <= 0 {
			continue
		}
		z := (freq - center) / bandwidth
		out[i] = math.Exp(-z * z / 2)
	}
	return out
}
