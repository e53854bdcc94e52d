package wire

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Result keys an agent may declare in its Schema.
const (
	KeyTruthFieldStrength = "truth_field_strength"
	KeyHarmonicCoherence  = "harmonic_coherence"
	KeyResonanceSpectrum  = "resonance_spectrum"
	KeyNewMastery         = "new_mastery"
	KeyLessonID           = "lesson_id"
	KeyChildID            = "child_id"
	KeyConcepts           = "concepts"
	KeyVirtues            = "virtues"
	KeyMasteryDelta       = "mastery_delta"
	KeyVirtueDeltas       = "virtue_deltas"
)

// VirtueMetrics is a child's accumulated virtue levels.
type VirtueMetrics struct {
	Honesty   float64 `json:"honesty"`
	Curiosity float64 `json:"curiosity"`
	Patience  float64 `json:"patience"`
}

// VirtueDeltas are the virtue increments produced by one lesson step.
type VirtueDeltas struct {
	Curiosity float64 `json:"curiosity"`
	Patience  float64 `json:"patience"`
	Honesty   float64 `json:"honesty"`
}

// ConceptProgress is one concept's mastery as reported to a parent.
type ConceptProgress struct {
	ConceptID   string  `json:"concept_id"`
	ConceptName string  `json:"concept_name"`
	Mastery     float64 `json:"mastery"`
	LastUpdated string  `json:"last_updated"`
}

// Response is the outbound record. Which result fields go on the wire is
// decided by the agent's Schema, not by the struct.
type Response struct {
	Success            bool              `json:"success"`
	TruthFieldStrength float64           `json:"truth_field_strength"`
	HarmonicCoherence  float64           `json:"harmonic_coherence"`
	ResonanceSpectrum  []float64         `json:"resonance_spectrum"`
	NewMastery         float64           `json:"new_mastery"`
	LessonID           string            `json:"lesson_id"`
	ChildID            string            `json:"child_id"`
	Concepts           []ConceptProgress `json:"concepts"`
	Virtues            VirtueMetrics     `json:"virtues"`
	MasteryDelta       float64           `json:"mastery_delta"`
	VirtueDeltas       VirtueDeltas      `json:"virtue_deltas"`
	Message            string            `json:"message"`
}

// Failure builds a failure response. Every result field keeps its zero value.
func Failure(message string) *Response {
	return &Response{Message: message}
}

// Schema is the ordered list of result keys an agent emits between
// success and message.
type Schema []string

// Validate reports keys the encoder does not know.
func (s Schema) Validate() error {
	var probe Response
	for _, key := range s {
		if _, err := probe.field(key); err != nil {
			return err
		}
	}
	return nil
}

func (r *Response) field(key string) (any, error) {
	switch key {
	case KeyTruthFieldStrength:
		return r.TruthFieldStrength, nil
	case KeyHarmonicCoherence:
		return r.HarmonicCoherence, nil
	case KeyResonanceSpectrum:
		if r.ResonanceSpectrum == nil {
			return []float64{}, nil
		}
		return r.ResonanceSpectrum, nil
	case KeyNewMastery:
		return r.NewMastery, nil
	case KeyLessonID:
		return r.LessonID, nil
	case KeyChildID:
		return r.ChildID, nil
	case KeyConcepts:
		if r.Concepts == nil {
			return []ConceptProgress{}, nil
		}
		return r.Concepts, nil
	case KeyVirtues:
		return r.Virtues, nil
	case KeyMasteryDelta:
		return r.MasteryDelta, nil
	case KeyVirtueDeltas:
		return r.VirtueDeltas, nil
	default:
		return nil, fmt.Errorf("unknown response key %q", key)
	}
}

// Encode serializes r as {success, <schema keys...>, message}. Field order
// is fixed by the schema; floats use the shortest exact representation.
func Encode(r *Response, schema Schema) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"success":`)
	if r.Success {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}

	for _, key := range schema {
		value, err := r.field(key)
		if err != nil {
			return nil, NewError(CodeInternal, MsgInternal, err)
		}
		if err := writeMember(&buf, key, value); err != nil {
			return nil, err
		}
	}
	if err := writeMember(&buf, "message", r.Message); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return NewError(CodeInternal, MsgInternal, fmt.Errorf("encode %s: %w", key, err))
	}
	buf.WriteByte(',')
	buf.WriteByte('"')
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.Write(encoded)
	return nil
}

// DecodeResponse parses a published response. Keys outside the agent's
// schema are simply left at their zero value.
func DecodeResponse(b []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, DecodeError(err)
	}
	return &r, nil
}
