package agents

import (
	"context"
	"fmt"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/scoring"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

type resonanceEngine struct {
	caps *capability.Client
}

func resonanceOperations(deps Deps) (string, wire.Schema, []dispatch.Operation) {
	r := resonanceEngine{caps: deps.Client}
	schema := wire.Schema{wire.KeyTruthFieldStrength, wire.KeyHarmonicCoherence, wire.KeyResonanceSpectrum}
	return ResonanceEngine, schema, []dispatch.Operation{
		{
			Name:     "calculate_truth_field",
			Requires: []dispatch.Requirement{dispatch.Require("missing claim", "Claim")},
			Handle:   r.calculateTruthField,
		},
		{
			Name:     "measure_resonance",
			Requires: []dispatch.Requirement{dispatch.Require("missing frequency or amplitude", "Frequency", "Amplitude")},
			Handle:   r.measureResonance,
		},
	}
}

func (r resonanceEngine) calculateTruthField(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	contextText := req.ContextOr("")
	score := scoring.TruthField(*req.Claim, contextText)

	r.caps.RecordResonance(ctx, req.AgentID, contextText, score)
	// the event carries the score as both frequency and amplitude
	r.caps.EmitEvent(ctx, req.AgentID, score, score, contextText)

	return &wire.Response{
		TruthFieldStrength: score,
		HarmonicCoherence:  scoring.Coherence(req.AgentID, contextText),
		ResonanceSpectrum:  scoring.Spectrum(score),
		Message:            fmt.Sprintf("Truth field calculated: claim resonates with strength %.4f", score),
	}, nil
}

func (r resonanceEngine) measureResonance(_ context.Context, req *wire.Request) (*wire.Response, error) {
	contextText := req.ContextOr("")
	frequency, amplitude := *req.Frequency, *req.Amplitude
	strength := scoring.Resonance(frequency, amplitude, contextText)

	return &wire.Response{
		TruthFieldStrength: strength,
		HarmonicCoherence:  scoring.Coherence(req.AgentID, contextText),
		ResonanceSpectrum:  scoring.Spectrum(strength),
		Message: fmt.Sprintf("Resonance measured: frequency %.4f, amplitude %.4f, strength %.4f",
			frequency, amplitude, strength),
	}, nil
}
