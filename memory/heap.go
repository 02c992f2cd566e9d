package memory

import (
	"sync"
	"unsafe"
)

// zeroSized backs every zero-size allocation so callers always receive a
// non-nil, stable pointer.
var zeroSized byte

// Heap is the default host allocator. Each allocation carves an aligned
// window out of a dedicated slice; the slice is retained in a live map until
// Free so the backing storage cannot be collected while the raw pointer is
// outstanding.
type Heap struct {
	mu   sync.Mutex
	live map[uintptr][]byte
}

// NewHeap creates an empty heap allocator.
func NewHeap() *Heap {
	return &Heap{live: make(map[uintptr][]byte)}
}

var defaultHeap = NewHeap()

// Default returns the process-wide heap allocator.
func Default() *Heap {
	return defaultHeap
}

// Alloc implements Allocator. Go slice storage arrives zeroed, so Alloc and
// AllocZeroed are equivalent here.
func (h *Heap) Alloc(layout Layout) unsafe.Pointer {
	if layout.Size == 0 {
		return unsafe.Pointer(&zeroSized)
	}
	align := layout.Align
	if align == 0 {
		align = 1
	}
	buf := make([]byte, layout.Size+align-1)
	base := uintptr(unsafe.Pointer(&buf[0]))
	offset := alignUp(base, align) - base
	ptr := unsafe.Pointer(&buf[offset])

	h.mu.Lock()
	h.live[uintptr(ptr)] = buf
	h.mu.Unlock()
	return ptr
}

// AllocZeroed implements Allocator.
func (h *Heap) AllocZeroed(layout Layout) unsafe.Pointer {
	return h.Alloc(layout)
}

// Free implements Allocator.
func (h *Heap) Free(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil || layout.Size == 0 {
		return
	}
	h.mu.Lock()
	delete(h.live, uintptr(ptr))
	h.mu.Unlock()
}

// Live returns the number of outstanding allocations.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
