package wire

import (
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_TruthFieldRequest(t *testing.T) {
	req, err := Decode([]byte(`{"op":"calculate_truth_field","claim":"Plants convert light into energy","context":"Biology ADVANCED study"}`))
	require.NoError(t, err)

	assert.Equal(t, "calculate_truth_field", req.Op)
	require.NotNil(t, req.Claim)
	assert.Equal(t, "Plants convert light into energy", *req.Claim)
	assert.Equal(t, "Biology ADVANCED study", req.ContextOr(""))
	assert.Nil(t, req.Frequency)
}

func TestDecode_ZeroValuesArePresent(t *testing.T) {
	req, err := Decode([]byte(`{"op":"measure_resonance","frequency":0,"amplitude":2.0,"concept":""}`))
	require.NoError(t, err)

	require.NotNil(t, req.Frequency)
	assert.Equal(t, 0.0, *req.Frequency)
	require.NotNil(t, req.Concept)
	assert.Equal(t, "", *req.Concept)
}

func TestDecode_LossyUTF8(t *testing.T) {
	raw := append([]byte(`{"op":"calculate_truth_field","claim":"ab`), 0xff, 0xfe)
	raw = append(raw, []byte(`cd"}`)...)

	req, err := Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, req.Claim)
	assert.Contains(t, *req.Claim, "�")
	assert.Contains(t, *req.Claim, "ab")
	assert.Contains(t, *req.Claim, "cd")
}

func TestDecode_Failures(t *testing.T) {
	cases := map[string]string{
		"garbage":     `not json at all`,
		"empty":       ``,
		"array":       `[1,2,3]`,
		"null":        `null`,
		"missing op":  `{"claim":"x"}`,
		"null op":     `{"op":null}`,
		"wrong type":  `{"op":"measure_resonance","frequency":"high"}`,
		"numeric op":  `{"op":7}`,
		"truncated":   `{"op":"calculate_truth_field"`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			require.Error(t, err)
			assert.Equal(t, CodeDecode, CodeOf(err))
			assert.Equal(t, MsgInvalidInput, MessageOf(err))
		})
	}
}

func TestDecode_EmptyOpIsDecoded(t *testing.T) {
	req, err := Decode([]byte(`{"op":""}`))
	require.NoError(t, err)
	assert.Equal(t, "", req.Op)
}

func TestDecode_Deterministic(t *testing.T) {
	input := []byte(`{"op":"grade_submission","student_id":"s1","lesson_data":{"concept":"c","difficulty":1.5,"time_spent":301}}`)
	first, err := Decode(input)
	require.NoError(t, err)
	second, err := Decode(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NotNil(t, first.LessonData.TimeSpent)
	assert.Equal(t, uint64(301), *first.LessonData.TimeSpent)
}

func TestEncode_SchemaOrder(t *testing.T) {
	resp := &Response{
		Success:            true,
		TruthFieldStrength: 0.75,
		HarmonicCoherence:  0.5,
		Message:            "ok",
	}
	out, err := Encode(resp, Schema{KeyTruthFieldStrength, KeyHarmonicCoherence, KeyResonanceSpectrum})
	require.NoError(t, err)
	assert.Equal(t,
		`{"success":true,"truth_field_strength":0.75,"harmonic_coherence":0.5,"resonance_spectrum":[],"message":"ok"}`,
		string(out))
}

func TestEncode_FailureKeepsSchemaShape(t *testing.T) {
	out, err := Encode(Failure(MsgInvalidInput), Schema{KeyMasteryDelta, KeyVirtueDeltas})
	require.NoError(t, err)
	assert.Equal(t,
		`{"success":false,"mastery_delta":0,"virtue_deltas":{"curiosity":0,"patience":0,"honesty":0},"message":"invalid input format"}`,
		string(out))
}

func TestEncode_RoundTrip(t *testing.T) {
	resp := &Response{
		Success:            true,
		TruthFieldStrength: 1.0 / 3.0,
		HarmonicCoherence:  math.Pi / 7,
		ResonanceSpectrum:  []float64{0, 1e-12, 0.1 + 0.2, math.Exp(-12.5)},
		ChildID:            "child-1",
		Virtues:            VirtueMetrics{Honesty: 0.7},
		Message:            "done",
	}
	schema := Schema{KeyTruthFieldStrength, KeyHarmonicCoherence, KeyResonanceSpectrum, KeyChildID, KeyVirtues}

	out, err := Encode(resp, schema)
	require.NoError(t, err)
	assert.True(t, json.Valid(out))

	back, err := DecodeResponse(out)
	require.NoError(t, err)
	assert.InDelta(t, resp.TruthFieldStrength, back.TruthFieldStrength, 1e-9)
	assert.InDelta(t, resp.HarmonicCoherence, back.HarmonicCoherence, 1e-9)
	require.Len(t, back.ResonanceSpectrum, len(resp.ResonanceSpectrum))
	for i := range resp.ResonanceSpectrum {
		assert.InDelta(t, resp.ResonanceSpectrum[i], back.ResonanceSpectrum[i], 1e-9)
	}
	assert.Equal(t, resp.ChildID, back.ChildID)
	assert.Equal(t, resp.Virtues, back.Virtues)
	assert.Equal(t, resp.Message, back.Message)
	assert.True(t, back.Success)
}

func TestEncode_NaNFails(t *testing.T) {
	_, err := Encode(&Response{TruthFieldStrength: math.NaN()}, Schema{KeyTruthFieldStrength})
	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestSchema_Validate(t *testing.T) {
	assert.NoError(t, Schema{KeyLessonID, KeyConcepts}.Validate())
	assert.Error(t, Schema{"lesson"}.Validate())
}

func TestLinearMemory_ReadWrite(t *testing.T) {
	mem := NewLinearMemory(64)

	data := []byte{1, 2, 3, 4, 5}
	require.NoError(t, mem.WriteAt(8, data))

	read := make([]byte, len(data))
	require.NoError(t, mem.ReadAt(8, read))
	assert.Equal(t, data, read)

	assert.ErrorIs(t, mem.WriteAt(62, data), ErrOutOfBounds)
	assert.ErrorIs(t, mem.ReadAt(math.MaxUint32, make([]byte, 2)), ErrOutOfBounds)
}

func TestLinearMemory_AllocateNeverReturnsZero(t *testing.T) {
	mem := NewLinearMemory(64)

	first, err := mem.Allocate(3)
	require.NoError(t, err)
	assert.NotZero(t, first)

	second, err := mem.Allocate(3)
	require.NoError(t, err)
	assert.Equal(t, first+allocAlign, second)

	_, err = mem.Allocate(64)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestPublish_TransfersBlock(t *testing.T) {
	mem := NewLinearMemory(256)
	payload := []byte(`{"success":true,"message":"hi"}`)

	h, err := Publish(mem, payload)
	require.NoError(t, err)
	assert.False(t, h.IsZero())
	assert.Equal(t, uint32(len(payload)), h.Len)
	assert.Equal(t, 1, mem.Live())

	got, err := Read(mem, h.Ptr, h.Len)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	assert.Equal(t, h, Unpack(h.Pack()))

	require.NoError(t, mem.Release(h.Ptr))
	assert.Equal(t, 0, mem.Live())
	assert.ErrorIs(t, mem.Release(h.Ptr), ErrNotAllocated)
}

func TestPublish_OutOfMemory(t *testing.T) {
	mem := NewLinearMemory(16)
	_, err := Publish(mem, make([]byte, 32))
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
