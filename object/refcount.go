package object

import (
	"fmt"
	"unsafe"

	"github.com/viant/kom/memory"
)

// maxRefCount is the hardened overflow threshold.
const maxRefCount = 1<<31 - 1

// Reference-count contract violation kinds.
const (
	ViolationOverflow     = "overflow"
	ViolationUnderflow    = "underflow"
	ViolationResurrection = "resurrection"
)

// ViolationError reports a reference-count contract violation detected under
// hardening. It is raised via panic: the count can no longer be trusted and
// any continuation risks use-after-free or double-free.
type ViolationError struct {
	Kind string
	Ptr  uintptr
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("refcount %s on object %#x", e.Kind, e.Ptr)
}

func (r *record) violation(kind string) {
	panic(&ViolationError{Kind: kind, Ptr: uintptr(unsafe.Pointer(r))})
}

// addRef increments the count. Under hardening an increment from zero is
// resurrection and an increment at the ceiling is overflow, both fatal.
func (r *record) addRef() uint32 {
	if r.flags&flagHardened == 0 {
		return r.refs.Add(1)
	}
	for {
		current := r.refs.Load()
		if current == 0 {
			r.violation(ViolationResurrection)
		}
		if current >= maxRefCount {
			r.violation(ViolationOverflow)
		}
		if r.refs.CompareAndSwap(current, current+1) {
			return current + 1
		}
	}
}

// release decrements the count and tears the record down on the 1->0
// transition. No payload access may follow a release that could have been the
// last one; the atomic decrement orders teardown after every prior access.
func (r *record) release() uint32 {
	if r.flags&flagHardened == 0 {
		remaining := r.refs.Add(^uint32(0))
		if remaining == 0 {
			r.teardown()
		}
		return remaining
	}
	for {
		current := r.refs.Load()
		if current == 0 {
			r.violation(ViolationUnderflow)
		}
		if r.refs.CompareAndSwap(current, current-1) {
			if current == 1 {
				r.teardown()
			}
			return current - 1
		}
	}
}

// teardown runs the payload finalizer, then returns the allocation to the
// allocator recorded at construction. It runs exactly once, on whichever
// context performed the 1->0 release.
func (r *record) teardown() {
	base := unsafe.Pointer(r)
	value, ok := anchors.LoadAndDelete(uintptr(base))
	if !ok {
		return
	}
	anc := value.(*anchor)
	if anc.final != nil {
		anc.final(unsafe.Add(base, r.payOff))
	}
	if r.flags&flagHardened != 0 && r.refs.Load() != 0 {
		r.violation(ViolationResurrection)
	}
	anc.alloc.Free(base, memory.Layout{Size: r.total, Align: r.algn})
}
