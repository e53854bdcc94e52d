package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/nmxmxh/fot_agents/internal/entry"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

const minMemory = 1 << 20

// InProcess runs a module's entry point over a fresh LinearMemory per call.
// It follows the same read/run/publish/release sequence as Runtime.
type InProcess struct {
	module *entry.Module

	mu   sync.Mutex
	last *wire.LinearMemory
}

// NewInProcess wraps module.
func NewInProcess(module *entry.Module) *InProcess {
	return &InProcess{module: module}
}

func (p *InProcess) Invoke(ctx context.Context, request []byte) ([]byte, error) {
	mem := wire.NewLinearMemory(max(minMemory, uint32(len(request))*4))
	ptr, err := mem.Allocate(uint32(len(request)))
	if err != nil {
		return nil, fmt.Errorf("allocate request: %w", err)
	}
	if err := mem.WriteAt(ptr, request); err != nil {
		return nil, err
	}

	h := p.module.Run(ctx, mem, ptr, uint32(len(request)))
	if h.IsZero() {
		return nil, ErrNoResponse
	}
	out, err := wire.Read(mem, h.Ptr, h.Len)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	for _, off := range []uint32{h.Ptr, ptr} {
		if err := mem.Release(off); err != nil {
			return nil, fmt.Errorf("release %d: %w", off, err)
		}
	}

	p.mu.Lock()
	p.last = mem
	p.mu.Unlock()
	return out, nil
}

// Outstanding reports blocks left unreleased by the most recent invocation.
func (p *InProcess) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return 0
	}
	return p.last.Live()
}
