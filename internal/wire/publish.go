package wire

import "fmt"

// Publish copies payload into a freshly allocated block of mem and hands
// the block to the caller. After Publish returns the module must not
// read, write or free that block again; reclaiming it is the caller's job.
func Publish(mem Memory, payload []byte) (Handle, error) {
	size := uint32(len(payload))
	if uint64(len(payload)) != uint64(size) {
		return Handle{}, fmt.Errorf("payload of %d bytes exceeds 32-bit address space", len(payload))
	}

	ptr, err := mem.Allocate(size)
	if err != nil {
		return Handle{}, fmt.Errorf("allocate %d bytes: %w", size, err)
	}
	if err := mem.WriteAt(ptr, payload); err != nil {
		return Handle{}, fmt.Errorf("write published buffer: %w", err)
	}
	return Handle{Ptr: ptr, Len: size}, nil
}

// Read copies length bytes at ptr out of mem.
func Read(mem Memory, ptr, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	if err := mem.ReadAt(ptr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
