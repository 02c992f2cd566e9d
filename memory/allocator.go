package memory

import (
	"unsafe"

	"github.com/viant/kom/status"
)

// Layout describes one allocation request: a byte size and an alignment that
// must be a power of two. Free must receive the same layout that produced the
// allocation.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the layout of T.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{Size: unsafe.Sizeof(zero), Align: unsafe.Alignof(zero)}
}

// Allocator is the three-operation contract every component allocates
// through. Implementations return nil on exhaustion; they never panic on it.
//
// Memory handed out by an Allocator is invisible to the garbage collector:
// values stored in it must not be the sole reference keeping a collected
// object alive. Self-contained payloads and package-level functions satisfy
// this trivially.
type Allocator interface {
	// Alloc returns a pointer aligned to layout.Align or nil.
	Alloc(layout Layout) unsafe.Pointer
	// AllocZeroed behaves like Alloc with the memory zero-initialized.
	AllocZeroed(layout Layout) unsafe.Pointer
	// Free releases ptr, previously produced by this allocator with the
	// same layout.
	Free(ptr unsafe.Pointer, layout Layout)
}

// TryAlloc maps an exhausted allocator onto the insufficient-resources code.
func TryAlloc(allocator Allocator, layout Layout) (unsafe.Pointer, status.Status) {
	ptr := allocator.Alloc(layout)
	if ptr == nil {
		return nil, status.InsufficientResources
	}
	return ptr, status.Success
}

// Memclr zeroes size bytes at ptr.
func Memclr(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil || size == 0 {
		return
	}
	buf := unsafe.Slice((*byte)(ptr), size)
	for i := range buf {
		buf[i] = 0
	}
}

func alignUp(value, align uintptr) uintptr {
	return (value + align - 1) &^ (align - 1)
}
