// Package securemem holds random key material in memory that is locked
// against swapping where the platform allows it and wiped on release.
package securemem

import (
	"runtime"
	"sync"
)

// Buffer is a fixed-size byte buffer for generated secrets.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// New allocates a zeroed buffer of size bytes and tries to lock it. A
// buffer that could not be locked is still usable; Locked reports which.
func New(size int) *Buffer {
	b := &Buffer{data: make([]byte, size)}
	b.locked = mlock(b.data)

	runtime.SetFinalizer(b, (*Buffer).wipe)
	return b
}

// Bytes returns the backing slice, or nil once the buffer is closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the buffer size, or 0 once closed.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Locked reports whether the memory is locked.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Close zeroes and unlocks the memory. It is safe to call more than once.
func (b *Buffer) Close() error {
	b.wipe()
	runtime.SetFinalizer(b, nil)
	return nil
}

func (b *Buffer) wipe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}
	clear(b.data)
	if b.locked {
		munlock(b.data)
		b.locked = false
	}
	b.data = nil
}
