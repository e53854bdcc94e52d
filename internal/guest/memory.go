//go:build wasip1

package guest

import (
	"sync"
	"unsafe"

	"github.com/nmxmxh/fot_agents/internal/wire"
)

// table pins buffers shared with the host. The Go collector cannot see
// host-held offsets, so a buffer stays referenced here until dealloc.
type table struct {
	mu   sync.Mutex
	bufs map[uint32][]byte
}

var pinned = &table{bufs: make(map[uint32][]byte)}

func addressOf(b []byte) uint32 {
	//nolint:gosec // linear memory addresses fit in 32 bits on wasm
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

func (t *table) alloc(size uint32) uint32 {
	// zero-length requests still get a distinct non-zero address
	buf := make([]byte, max(size, 1))
	ptr := addressOf(buf)

	t.mu.Lock()
	t.bufs[ptr] = buf[:size]
	t.mu.Unlock()
	return ptr
}

func (t *table) free(ptr uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.bufs[ptr]; !ok {
		return false
	}
	delete(t.bufs, ptr)
	return true
}

// span returns the pinned bytes covering [offset, offset+n).
func (t *table) span(offset, n uint32) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if buf, ok := t.bufs[offset]; ok && n <= uint32(len(buf)) {
		return buf[:n], nil
	}
	for start, buf := range t.bufs {
		end := uint64(start) + uint64(len(buf))
		if offset >= start && uint64(offset)+uint64(n) <= end {
			return buf[offset-start : offset-start+n], nil
		}
	}
	return nil, wire.ErrOutOfBounds
}

// Alloc backs the exported alloc function.
func Alloc(size uint32) uint32 {
	return pinned.alloc(size)
}

// Free backs the exported dealloc function. Unknown pointers are ignored.
func Free(ptr uint32) {
	pinned.free(ptr)
}

// Pinned reports how many buffers the host still owns.
func Pinned() int {
	pinned.mu.Lock()
	defer pinned.mu.Unlock()
	return len(pinned.bufs)
}

type linearMemory struct{}

// Memory is the module's linear memory restricted to pinned buffers.
// Reads and writes outside a buffer handed out by Alloc fail with
// wire.ErrOutOfBounds.
func Memory() wire.Memory {
	return linearMemory{}
}

func (linearMemory) ReadAt(offset uint32, dest []byte) error {
	src, err := pinned.span(offset, uint32(len(dest)))
	if err != nil {
		return err
	}
	copy(dest, src)
	return nil
}

func (linearMemory) WriteAt(offset uint32, src []byte) error {
	dst, err := pinned.span(offset, uint32(len(src)))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

func (linearMemory) Allocate(size uint32) (uint32, error) {
	return pinned.alloc(size), nil
}
