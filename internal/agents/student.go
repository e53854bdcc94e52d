package agents

import (
	"context"
	"fmt"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/scoring"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

const (
	studentAgentID         = "student_agent"
	defaultLearningContext = "general_learning"
)

type student struct {
	caps *capability.Client
}

func studentOperations(deps Deps) (string, wire.Schema, []dispatch.Operation) {
	s := student{caps: deps.Client}
	schema := wire.Schema{wire.KeyNewMastery, wire.KeyTruthFieldStrength, wire.KeyHarmonicCoherence}
	return Student, schema, []dispatch.Operation{
		{
			Name: "update_mastery",
			Requires: []dispatch.Requirement{
				dispatch.Require("missing concept", "Concept"),
				dispatch.Require("missing delta", "Delta"),
			},
			Handle: s.updateMastery,
		},
	}
}

// updateMastery writes the mastery delta with its scores to the graph and,
// only once the write succeeded, records the resonance.
func (s student) updateMastery(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	concept, delta := *req.Concept, *req.Delta
	contextText := req.ContextOr(defaultLearningContext)

	truth := scoring.TruthField(concept, contextText)
	coherence := scoring.Coherence(concept, contextText)

	_, err := s.caps.GraphWrite(ctx, "update_mastery", capability.Fields{
		"concept":              concept,
		"delta":                delta,
		"truth_field_strength": truth,
		"harmonic_coherence":   coherence,
		"context":              contextText,
	})
	if err != nil {
		return nil, err
	}

	s.caps.RecordResonance(ctx, studentAgentID, contextText, truth)

	return &wire.Response{
		NewMastery:         delta,
		TruthFieldStrength: truth,
		HarmonicCoherence:  coherence,
		Message:            fmt.Sprintf("Mastery updated for concept: %s. Truth field strength: %.4f", concept, truth),
	}, nil
}
