package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRelevance(t *testing.T) {
	assert.Equal(t, 0.0, ContextRelevance(""))
	assert.InDelta(t, 0.1, ContextRelevance("x"), 1e-12)
	// 3 words, 9 capitals
	assert.InDelta(t, 0.75, ContextRelevance("Biology ADVANCED study"), 1e-12)
	assert.Equal(t, 1.0, ContextRelevance(strings.Repeat("WORD ", 40)))
	// non-ASCII capitals do not count
	assert.InDelta(t, 0.1, ContextRelevance("ÉÀÜ"), 1e-12)
}

func TestContextRelevance_Monotonic(t *testing.T) {
	prev := 0.0
	context := ""
	for i := 0; i < 30; i++ {
		context += " w"
		got := ContextRelevance(context)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, 1.0)
		prev = got
	}

	prev = ContextRelevance("word")
	upper := "word"
	for i := 0; i < 30; i++ {
		upper += "Q"
		got := ContextRelevance(upper)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, 1.0)
		prev = got
	}
}

func TestTruthField_Bounds(t *testing.T) {
	subjects := []string{"a", "Plants convert light into energy", strings.Repeat("z", 5000), "ñandú"}
	contexts := []string{"x", "Biology ADVANCED study", strings.Repeat("A b ", 100), "lower case words only"}
	for _, s := range subjects {
		for _, c := range contexts {
			got := TruthField(s, c)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
			assert.False(t, math.IsNaN(got))
		}
	}
}

func TestTruthField_Formula(t *testing.T) {
	claim := "Plants convert light into energy"
	context := "Biology ADVANCED study"

	base := math.Log(float64(len(claim))) * 0.75
	want := math.Min(1, math.Abs(math.Cos(base*math.Pi))*0.5+0.5)

	got, parts := TruthFieldComponents(claim, context)
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, base, parts.BaseResonance, 1e-12)
	assert.InDelta(t, 0.75, parts.ContextRelevance, 1e-12)
}

func TestTruthField_EmptySubjectIsClamped(t *testing.T) {
	got, parts := TruthFieldComponents("", "Biology ADVANCED study")
	assert.Equal(t, 0.0, parts.BaseResonance)
	assert.Equal(t, 1.0, parts.HarmonicFactor)
	assert.Equal(t, 1.0, got)
}

func TestCoherence(t *testing.T) {
	assert.Equal(t, 1.0, Coherence("abc", "abc"))
	assert.Equal(t, 1.0, Coherence("", ""))

	// 'a' = 97: |cos(0.97)|
	assert.InDelta(t, math.Abs(math.Cos(0.97)), Coherence("a", ""), 1e-12)
	assert.Equal(t, Coherence("agent", "context"), Coherence("context", "agent"))
}

func TestCoherence_LongInputs(t *testing.T) {
	long := strings.Repeat("\U0010FFFF", 20000)
	got := Coherence(long, "")
	assert.False(t, math.IsNaN(got))
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)

	want := math.Abs(math.Cos(float64(int64(0x10FFFF)*20000) * 0.01))
	assert.InDelta(t, want, got, 1e-9)
}

func TestResonance_ZeroFrequency(t *testing.T) {
	got, parts := ResonanceComponents(0, 2.0, "x")
	assert.Equal(t, 1.0, parts.Sinc)
	assert.Equal(t, 1.0, parts.Gaussian)
	assert.InDelta(t, 2.0*ContextRelevance("x"), got, 1e-12)
}

func TestResonance_Formula(t *testing.T) {
	f, a := 0.5, 3.0
	ctx := "Quantum field"
	sinc := math.Sin(math.Pi*f) / (math.Pi * f)
	want := a * math.Abs(sinc) * math.Exp(-f*f/2) * ContextRelevance(ctx)
	assert.InDelta(t, want, Resonance(f, a, ctx), 1e-12)

	// integer frequencies hit sinc zeros
	assert.InDelta(t, 0.0, Resonance(2, 1, ctx), 1e-12)
	// negative amplitude is passed through
	assert.Less(t, Resonance(0.5, -1, ctx), 0.0)
}

func TestResonance_HugeFrequencyIsFinite(t *testing.T) {
	for _, f := range []float64{1e308, -1e308, math.MaxFloat64, 1e200} {
		got, parts := ResonanceComponents(f, 1, "A")
		assert.False(t, math.IsNaN(got), "frequency %g", f)
		assert.False(t, math.IsInf(got, 0), "frequency %g", f)
		assert.False(t, math.IsNaN(parts.Sinc), "frequency %g", f)
		assert.Equal(t, 0.0, math.Abs(got))
	}
	for _, s := range Spectrum(Resonance(1e308, 1, "A")) {
		assert.False(t, math.IsNaN(s))
	}
}

func TestSpectrum(t *testing.T) {
	for _, center := range []float64{0.9, 0.3, 1e-3, 7} {
		s := Spectrum(center)
		require.Len(t, s, SpectrumSize)
		assert.Equal(t, 1.0, s[5], "center %v", center)
		if center > 0.5 {
			for i := 0; i < 5; i++ {
				assert.InDelta(t, s[i], s[10-i], 1e-9, "center %v", center)
			}
			assert.InDelta(t, math.Exp(-12.5), s[0], 1e-9)
		}
	}
}

func TestSpectrum_NonPositiveCenter(t *testing.T) {
	for _, center := range []float64{0, -0.2, -10} {
		s := Spectrum(center)
		require.Len(t, s, SpectrumSize)
		assert.Equal(t, 0.0, s[5])
	}

	// 0 center: right half positive
	s := Spectrum(0)
	for i := 0; i <= 5; i++ {
		assert.Equal(t, 0.0, s[i])
	}
	assert.InDelta(t, math.Exp(-0.5), s[6], 1e-9)
}

func TestSpectrum_LeftEdgeCut(t *testing.T) {
	s := Spectrum(0.25)
	// offsets -5..-3 land on -0.25, -0.15, -0.05
	assert.Equal(t, 0.0, s[0])
	assert.Equal(t, 0.0, s[1])
	assert.Equal(t, 0.0, s[2])
	assert.Greater(t, s[3], 0.0)
	assert.Equal(t, 1.0, s[5])
}

func TestSpectrum_Restartable(t *testing.T) {
	assert.Equal(t, Spectrum(0.42), Spectrum(0.42))
}
