// Package capabilitytest provides a recording capability.Host for tests.
package capabilitytest

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/nmxmxh/fot_agents/internal/capability"
)

// Call is one recorded capability call.
type Call struct {
	Kind      capability.Kind
	Payload   []byte
	AgentID   string
	SubjectID string
	Virtue    string
	Context   string
	Value     float64
	Amplitude float64
}

// Decoded unmarshals a graph payload into a map.
func (c Call) Decoded() (map[string]any, error) {
	var out map[string]any
	err := json.Unmarshal(c.Payload, &out)
	return out, err
}

// Host records every call and fails the kinds listed in Fail.
type Host struct {
	mu     sync.Mutex
	calls  []Call
	Fail   map[capability.Kind]error
	Result []byte
}

// NewHost returns a host where every call succeeds.
func NewHost() *Host {
	return &Host{Fail: make(map[capability.Kind]error)}
}

// Failing returns a host that fails the given kinds with err.
func Failing(err error, kinds ...capability.Kind) *Host {
	h := NewHost()
	for _, k := range kinds {
		h.Fail[k] = err
	}
	return h
}

func (h *Host) record(c Call) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, c)
	return h.Fail[c.Kind]
}

// Calls returns a copy of the recorded calls.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// CallsOf returns the recorded calls of one kind.
func (h *Host) CallsOf(kind capability.Kind) []Call {
	var out []Call
	for _, c := range h.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (h *Host) GraphRead(_ context.Context, query []byte) ([]byte, error) {
	if err := h.record(Call{Kind: capability.KindGraphRead, Payload: query}); err != nil {
		return nil, err
	}
	return h.Result, nil
}

func (h *Host) GraphWrite(_ context.Context, mutation []byte) ([]byte, error) {
	if err := h.record(Call{Kind: capability.KindGraphWrite, Payload: mutation}); err != nil {
		return nil, err
	}
	return h.Result, nil
}

func (h *Host) RecordResonance(_ context.Context, agentID, contextText string, score float64) error {
	return h.record(Call{Kind: capability.KindRecordResonance, AgentID: agentID, Context: contextText, Value: score})
}

func (h *Host) RecordVirtue(_ context.Context, subjectID, virtue string, delta float64) error {
	return h.record(Call{Kind: capability.KindRecordVirtue, SubjectID: subjectID, Virtue: virtue, Value: delta})
}

func (h *Host) EmitEvent(_ context.Context, agentID string, frequency, amplitude float64, contextText string) error {
	return h.record(Call{Kind: capability.KindEmitEvent, AgentID: agentID, Value: frequency, Amplitude: amplitude, Context: contextText})
}
