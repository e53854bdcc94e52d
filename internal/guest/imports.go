//go:build wasip1

package guest

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/nmxmxh/fot_agents/internal/capability"
)

//go:wasmimport fot_graph graph_read
func graphRead(ptr unsafe.Pointer, length uint32) int32

//go:wasmimport fot_graph graph_write
func graphWrite(ptr unsafe.Pointer, length uint32) int32

//go:wasmimport fot_metrics record_resonance
func recordResonance(agentPtr unsafe.Pointer, agentLen uint32, ctxPtr unsafe.Pointer, ctxLen uint32, score float64) int32

//go:wasmimport fot_metrics record_virtue
func recordVirtue(subjectPtr unsafe.Pointer, subjectLen uint32, virtuePtr unsafe.Pointer, virtueLen uint32, delta float64) int32

//go:wasmimport fot_events emit_resonance
func emitResonance(agentPtr unsafe.Pointer, agentLen uint32, frequency, amplitude float64, ctxPtr unsafe.Pointer, ctxLen uint32) int32

// Host reaches the embedding runtime through the wasm imports. Graph calls
// report only a status; the host's result never crosses back.
type Host struct{}

var _ capability.Host = Host{}

func bytesPtr(b []byte) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.SliceData(b)), uint32(len(b))
}

func stringPtr(s string) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.StringData(s)), uint32(len(s))
}

func status(kind capability.Kind, code int32) error {
	if code != 0 {
		return fmt.Errorf("%s: host status %d", kind, code)
	}
	return nil
}

func (Host) GraphRead(_ context.Context, query []byte) ([]byte, error) {
	p, n := bytesPtr(query)
	return nil, status(capability.KindGraphRead, graphRead(p, n))
}

func (Host) GraphWrite(_ context.Context, mutation []byte) ([]byte, error) {
	p, n := bytesPtr(mutation)
	return nil, status(capability.KindGraphWrite, graphWrite(p, n))
}

func (Host) RecordResonance(_ context.Context, agentID, contextText string, score float64) error {
	ap, an := stringPtr(agentID)
	cp, cn := stringPtr(contextText)
	return status(capability.KindRecordResonance, recordResonance(ap, an, cp, cn, score))
}

func (Host) RecordVirtue(_ context.Context, subjectID, virtue string, delta float64) error {
	sp, sn := stringPtr(subjectID)
	vp, vn := stringPtr(virtue)
	return status(capability.KindRecordVirtue, recordVirtue(sp, sn, vp, vn, delta))
}

func (Host) EmitEvent(_ context.Context, agentID string, frequency, amplitude float64, contextText string) error {
	ap, an := stringPtr(agentID)
	cp, cn := stringPtr(contextText)
	return status(capability.KindEmitEvent, emitResonance(ap, an, frequency, amplitude, cp, cn))
}
