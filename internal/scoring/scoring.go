// Package scoring holds the deterministic scores shared by every agent.
// All functions are pure and never return NaN or ±Inf for finite inputs.
package scoring

import (
	"math"
	"strings"
)

const (
	wordWeight      = 0.1
	uppercaseWeight = 0.05
	coherenceScale  = 0.01
)

// Components are the intermediates of one score, exposed for diagnostics.
type Components struct {
	BaseResonance    float64
	HarmonicFactor   float64
	PhaseDifference  float64
	ContextRelevance float64
	Sinc             float64
	Gaussian         float64
}

// ContextRelevance scores a context by how many words and ASCII capitals
// it has, capped at 1.
func ContextRelevance(context string) float64 {
	words := len(strings.Fields(context))
	upper := 0
	for i := 0; i < len(context); i++ {
		if c := context[i]; c >= 'A' && c <= 'Z' {
			upper++
		}
	}
	return math.Min(1, wordWeight*float64(words)+uppercaseWeight*float64(upper))
}

// TruthFieldComponents computes the truth field of subject within context.
// The log argument is the byte length clamped to at least 1, so an empty
// subject has zero base resonance and full harmonic factor.
func TruthFieldComponents(subject, context string) (float64, Components) {
	relevance := ContextRelevance(context)
	length := math.Max(1, float64(len(subject)))
	base := math.Log(length) * relevance
	harmonic := math.Abs(math.Cos(base * math.Pi))

	score := math.Min(1, harmonic*0.5+0.5)
	return score, Components{
		BaseResonance:    base,
		HarmonicFactor:   harmonic,
		ContextRelevance: relevance,
	}
}

// TruthField returns the truth-field strength in [0.5, 1].
func TruthField(subject, context string) float64 {
	score, _ := TruthFieldComponents(subject, context)
	return score
}

// Coherence measures phase alignment between two identifiers' code-point sums.
func Coherence(idA, idB string) float64 {
	phase := math.Abs(float64(codePointSum(idA) - codePointSum(idB)))
	return math.Abs(math.Cos(phase * coherenceScale))
}

func codePointSum(s string) int64 {
	var sum int64
	for _, r := range s {
		sum += int64(r)
	}
	return sum
}

// ResonanceComponents computes amplitude·|sinc(f)|·gauss(f)·relevance.
// Sign and magnitude of the inputs are the caller's business.
func ResonanceComponents(frequency, amplitude float64, context string) (float64, Components) {
	sinc := 1.0
	if frequency != 0 {
		x := math.Pi * frequency
		if math.IsInf(x, 0) {
			// |sin x / x| <= 1/|x|, so the limit is 0
			sinc = 0
		} else {
			sinc = math.Sin(x) / x
		}
	}
	gaussian := math.Exp(-frequency * frequency / 2)
	relevance := ContextRelevance(context)

	return amplitude * math.Abs(sinc) * gaussian * relevance, Components{
		ContextRelevance: relevance,
		Sinc:             sinc,
		Gaussian:         gaussian,
	}
}

// Resonance returns the resonance strength of one frequency/amplitude sample.
func Resonance(frequency, amplitude float64, context string) float64 {
	score, _ := ResonanceComponents(frequency, amplitude, context)
	return score
}
