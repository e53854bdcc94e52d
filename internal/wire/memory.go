package wire

import (
	"errors"
	"sync"
)

var (
	ErrOutOfBounds  = errors.New("offset out of bounds")
	ErrOutOfMemory  = errors.New("linear memory exhausted")
	ErrNotAllocated = errors.New("offset is not a live allocation")
)

// Memory is the module's addressable memory as seen by the codec.
// Implementations may be backed by wasm linear memory or an in-process byte slice.
type Memory interface {
	ReadAt(offset uint32, dest []byte) error
	WriteAt(offset uint32, src []byte) error
	// Allocate reserves size bytes and returns their offset. The block
	// stays reserved until the owner releases it.
	Allocate(size uint32) (uint32, error)
}

// Handle references a published buffer. The zero Handle means nothing was published.
type Handle struct {
	Ptr uint32
	Len uint32
}

// Pack folds the handle into the single i64 a wasm export can return.
func (h Handle) Pack() uint64 {
	return uint64(h.Ptr)<<32 | uint64(h.Len)
}

// Unpack is the host-side inverse of Pack.
func Unpack(packed uint64) Handle {
	return Handle{Ptr: uint32(packed >> 32), Len: uint32(packed)}
}

// IsZero reports whether no buffer was published.
func (h Handle) IsZero() bool {
	return h.Ptr == 0 && h.Len == 0
}

const allocAlign = 8

// LinearMemory is an in-process Memory with bump allocation. Offset 0 is
// never handed out so the zero Handle stays unambiguous.
type LinearMemory struct {
	mu   sync.Mutex
	data []byte
	next uint32
	live map[uint32]uint32
}

// NewLinearMemory creates a linear memory of the requested size.
func NewLinearMemory(size uint32) *LinearMemory {
	return &LinearMemory{
		data: make([]byte, size),
		next: allocAlign,
		live: make(map[uint32]uint32),
	}
}

func (m *LinearMemory) Size() uint32 {
	return uint32(len(m.data))
}

func (m *LinearMemory) ReadAt(offset uint32, dest []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := uint64(offset) + uint64(len(dest))
	if end > uint64(len(m.data)) {
		return ErrOutOfBounds
	}
	copy(dest, m.data[offset:end])
	return nil
}

func (m *LinearMemory) WriteAt(offset uint32, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := uint64(offset) + uint64(len(src))
	if end > uint64(len(m.data)) {
		return ErrOutOfBounds
	}
	copy(m.data[offset:end], src)
	return nil
}

func (m *LinearMemory) Allocate(size uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := m.next
	end := uint64(offset) + uint64(size)
	if end > uint64(len(m.data)) {
		return 0, ErrOutOfMemory
	}
	m.next = uint32((end + allocAlign - 1) &^ (allocAlign - 1))
	m.live[offset] = size
	return offset, nil
}

// Release is the owner's reclaim of a block. Space is not reused; the
// block only stops counting as live.
func (m *LinearMemory) Release(offset uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[offset]; !ok {
		return ErrNotAllocated
	}
	delete(m.live, offset)
	return nil
}

// Live returns the number of blocks not yet released.
func (m *LinearMemory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
