// Package host embeds agent modules. Runtime executes a compiled module
// with wasmer; InProcess runs the same entry point without wasm. Both
// serve the module's capability imports from a capability.Host backend.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/utils"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

// ErrNoResponse is returned when the module published nothing.
var ErrNoResponse = errors.New("module returned the zero handle")

// Invoker runs one request through an agent module.
type Invoker interface {
	Invoke(ctx context.Context, request []byte) ([]byte, error)
}

// Runtime holds a compiled module. Each Invoke gets a fresh instance, so
// no state leaks between invocations.
type Runtime struct {
	mu      sync.Mutex
	engine  *wasmer.Engine
	store   *wasmer.Store
	module  *wasmer.Module
	backend capability.Host
	logger  *utils.Logger
}

// NewRuntime compiles wasmBytes. The module must export memory, alloc,
// dealloc and run.
func NewRuntime(wasmBytes []byte, backend capability.Host, logger *utils.Logger) (*Runtime, error) {
	if logger == nil {
		logger = utils.NopLogger()
	}
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		store.Close()
		return nil, utils.WrapError(err, "compile module")
	}
	return &Runtime{
		engine:  engine,
		store:   store,
		module:  module,
		backend: backend,
		logger:  logger,
	}, nil
}

type exports struct {
	memory  *wasmer.Memory
	alloc   wasmer.NativeFunction
	dealloc wasmer.NativeFunction
	run     wasmer.NativeFunction
}

func (r *Runtime) instantiate(b *binding) (*wasmer.Instance, *exports, error) {
	imports, err := r.imports()
	if err != nil {
		return nil, nil, err
	}
	b.register(r.store, imports)

	instance, err := wasmer.NewInstance(r.module, imports)
	if err != nil {
		return nil, nil, utils.WrapError(err, "instantiate module")
	}

	ex := &exports{}
	if ex.memory, err = instance.Exports.GetMemory("memory"); err != nil {
		instance.Close()
		return nil, nil, utils.WrapError(err, "export memory")
	}
	b.memory = ex.memory

	// reactors must run their initializer before any other export
	if initialize, err := instance.Exports.GetFunction("_initialize"); err == nil {
		if _, err := initialize(); err != nil {
			instance.Close()
			return nil, nil, utils.WrapError(err, "_initialize")
		}
	}

	for name, dst := range map[string]*wasmer.NativeFunction{"alloc": &ex.alloc, "dealloc": &ex.dealloc, "run": &ex.run} {
		if *dst, err = instance.Exports.GetFunction(name); err != nil {
			instance.Close()
			return nil, nil, utils.WrapError(err, "export "+name)
		}
	}
	return instance, ex, nil
}

// imports starts from a WASI environment when the module was built
// against WASI, and from an empty import object otherwise.
func (r *Runtime) imports() (*wasmer.ImportObject, error) {
	if wasmer.GetWasiVersion(r.module) == wasmer.WASI_VERSION_INVALID {
		return wasmer.NewImportObject(), nil
	}
	wasiEnv, err := wasmer.NewWasiStateBuilder("fot-agent").InheritStderr().Finalize()
	if err != nil {
		return nil, utils.WrapError(err, "wasi environment")
	}
	imports, err := wasiEnv.GenerateImportObject(r.store, r.module)
	if err != nil {
		return nil, utils.WrapError(err, "wasi imports")
	}
	return imports, nil
}

// Invoke writes request into a fresh instance, runs it and returns a copy
// of the published response. Both buffers are handed back via dealloc.
func (r *Runtime) Invoke(ctx context.Context, request []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := &binding{ctx: ctx, backend: r.backend, logger: r.logger}
	instance, ex, err := r.instantiate(b)
	if err != nil {
		return nil, err
	}
	defer instance.Close()

	raw, err := ex.alloc(int32(len(request)))
	if err != nil {
		return nil, utils.WrapError(err, "alloc")
	}
	reqPtr := raw.(int32)

	data := ex.memory.Data()
	if uint64(uint32(reqPtr))+uint64(len(request)) > uint64(len(data)) {
		return nil, fmt.Errorf("alloc returned %d for %d bytes: %w", uint32(reqPtr), len(request), errGuestRange)
	}
	copy(data[uint32(reqPtr):], request)

	packed, err := ex.run(reqPtr, int32(len(request)))
	if err != nil {
		return nil, utils.WrapError(err, "run")
	}
	h := wire.Unpack(uint64(packed.(int64)))
	if h.IsZero() {
		return nil, ErrNoResponse
	}

	out, err := guestBytes(ex.memory.Data(), int32(h.Ptr), int32(h.Len))
	if err != nil {
		return nil, fmt.Errorf("response handle %d+%d: %w", h.Ptr, h.Len, err)
	}

	for _, ptr := range []int32{int32(h.Ptr), reqPtr} {
		if _, err := ex.dealloc(ptr); err != nil {
			r.logger.Warn("dealloc failed", utils.Uint32("ptr", uint32(ptr)), utils.Err(err))
		}
	}
	return out, nil
}

// Close releases the compiled module.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.module.Close()
	r.store.Close()
	return nil
}
