package host

import (
	"context"
	"errors"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/utils"
)

// Status codes returned to the guest by every import.
const (
	statusOK         int32 = 0
	statusBadPointer int32 = 1
	statusFailed     int32 = 2
)

var errGuestRange = errors.New("guest range outside linear memory")

// guestBytes copies [ptr, ptr+length) out of a guest memory snapshot.
// Pointers arrive as i32 and are reinterpreted as unsigned offsets.
func guestBytes(data []byte, ptr, length int32) ([]byte, error) {
	start, n := uint64(uint32(ptr)), uint64(uint32(length))
	if start+n > uint64(len(data)) {
		return nil, errGuestRange
	}
	out := make([]byte, n)
	copy(out, data[start:start+n])
	return out, nil
}

func guestString(data []byte, ptr, length int32) (string, error) {
	b, err := guestBytes(data, ptr, length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// binding serves the imports of one instance. memory is set once the
// instance exists; the guest cannot call an import before that.
type binding struct {
	ctx     context.Context
	backend capability.Host
	logger  *utils.Logger
	memory  *wasmer.Memory
}

func (b *binding) data() []byte {
	if b.memory == nil {
		return nil
	}
	return b.memory.Data()
}

func (b *binding) result(kind capability.Kind, err error) []wasmer.Value {
	code := statusOK
	switch {
	case errors.Is(err, errGuestRange):
		code = statusBadPointer
	case err != nil:
		code = statusFailed
	}
	if err != nil {
		b.logger.Warn("Host call failed", utils.String("call", string(kind)), utils.Err(err))
	}
	return []wasmer.Value{wasmer.NewI32(code)}
}

func (b *binding) graph(kind capability.Kind, call func(context.Context, []byte) ([]byte, error)) func([]wasmer.Value) ([]wasmer.Value, error) {
	return func(args []wasmer.Value) ([]wasmer.Value, error) {
		payload, err := guestBytes(b.data(), args[0].I32(), args[1].I32())
		if err == nil {
			_, err = call(b.ctx, payload)
		}
		return b.result(kind, err), nil
	}
}

func (b *binding) recordResonance(args []wasmer.Value) ([]wasmer.Value, error) {
	data := b.data()
	agentID, err := guestString(data, args[0].I32(), args[1].I32())
	if err != nil {
		return b.result(capability.KindRecordResonance, err), nil
	}
	contextText, err := guestString(data, args[2].I32(), args[3].I32())
	if err != nil {
		return b.result(capability.KindRecordResonance, err), nil
	}
	err = b.backend.RecordResonance(b.ctx, agentID, contextText, args[4].F64())
	return b.result(capability.KindRecordResonance, err), nil
}

func (b *binding) recordVirtue(args []wasmer.Value) ([]wasmer.Value, error) {
	data := b.data()
	subjectID, err := guestString(data, args[0].I32(), args[1].I32())
	if err != nil {
		return b.result(capability.KindRecordVirtue, err), nil
	}
	virtue, err := guestString(data, args[2].I32(), args[3].I32())
	if err != nil {
		return b.result(capability.KindRecordVirtue, err), nil
	}
	err = b.backend.RecordVirtue(b.ctx, subjectID, virtue, args[4].F64())
	return b.result(capability.KindRecordVirtue, err), nil
}

func (b *binding) emitResonance(args []wasmer.Value) ([]wasmer.Value, error) {
	data := b.data()
	agentID, err := guestString(data, args[0].I32(), args[1].I32())
	if err != nil {
		return b.result(capability.KindEmitEvent, err), nil
	}
	contextText, err := guestString(data, args[4].I32(), args[5].I32())
	if err != nil {
		return b.result(capability.KindEmitEvent, err), nil
	}
	err = b.backend.EmitEvent(b.ctx, agentID, args[2].F64(), args[3].F64(), contextText)
	return b.result(capability.KindEmitEvent, err), nil
}

// register adds the fot_graph, fot_metrics and fot_events namespaces.
func (b *binding) register(store *wasmer.Store, imports *wasmer.ImportObject) {
	i32, f64 := wasmer.I32, wasmer.F64
	fn := func(params []wasmer.ValueKind, call func([]wasmer.Value) ([]wasmer.Value, error)) *wasmer.Function {
		ty := wasmer.NewFunctionType(wasmer.NewValueTypes(params...), wasmer.NewValueTypes(wasmer.I32))
		return wasmer.NewFunction(store, ty, call)
	}

	imports.Register("fot_graph", map[string]wasmer.IntoExtern{
		"graph_read":  fn([]wasmer.ValueKind{i32, i32}, b.graph(capability.KindGraphRead, b.backend.GraphRead)),
		"graph_write": fn([]wasmer.ValueKind{i32, i32}, b.graph(capability.KindGraphWrite, b.backend.GraphWrite)),
	})
	imports.Register("fot_metrics", map[string]wasmer.IntoExtern{
		"record_resonance": fn([]wasmer.ValueKind{i32, i32, i32, i32, f64}, b.recordResonance),
		"record_virtue":    fn([]wasmer.ValueKind{i32, i32, i32, i32, f64}, b.recordVirtue),
	})
	imports.Register("fot_events", map[string]wasmer.IntoExtern{
		"emit_resonance": fn([]wasmer.ValueKind{i32, i32, f64, f64, i32, i32}, b.emitResonance),
	})
}
