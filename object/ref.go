package object

import (
	"unsafe"

	"github.com/viant/kom/status"
)

// Ref is an owning handle: it holds exactly one reference on the interface
// pointer it wraps and gives it back on Release. The zero Ref is empty.
type Ref struct {
	ptr unsafe.Pointer
}

// Adopt wraps ptr without adding a reference; the caller transfers the
// reference it already holds.
func Adopt(ptr unsafe.Pointer) Ref {
	return Ref{ptr: ptr}
}

// Retain adds a reference to ptr and wraps it.
func Retain(ptr unsafe.Pointer) Ref {
	if ptr != nil {
		AddRef(ptr)
	}
	return Ref{ptr: ptr}
}

// Ptr returns the wrapped interface pointer without affecting ownership.
func (r Ref) Ptr() unsafe.Pointer {
	return r.ptr
}

// IsNil reports whether the handle is empty.
func (r Ref) IsNil() bool {
	return r.ptr == nil
}

// Release gives up the held reference and empties the handle. Safe on an
// empty handle.
func (r *Ref) Release() {
	if r.ptr == nil {
		return
	}
	ptr := r.ptr
	r.ptr = nil
	Release(ptr)
}

// Clone returns a second owning handle on the same pointer.
func (r Ref) Clone() Ref {
	return Retain(r.ptr)
}

// Query resolves iid through the wrapped pointer; on success the result owns
// the reference the query added.
func (r Ref) Query(iid IID) (Ref, status.Status) {
	if r.ptr == nil {
		return Ref{}, status.InvalidParameter
	}
	ptr, st := Query(r.ptr, iid)
	return Ref{ptr: ptr}, st
}

// Borrow returns a non-owning view for re-entrant calls.
func (r Ref) Borrow() Borrowed {
	return Borrowed{ptr: r.ptr}
}

// Borrowed is a non-owning view of an interface pointer. It never releases;
// the lender's reference must outlive it.
type Borrowed struct {
	ptr unsafe.Pointer
}

// BorrowPtr wraps a raw pointer the caller guarantees stays referenced.
func BorrowPtr(ptr unsafe.Pointer) Borrowed {
	return Borrowed{ptr: ptr}
}

// Ptr returns the viewed interface pointer.
func (b Borrowed) Ptr() unsafe.Pointer {
	return b.ptr
}

// Retain upgrades the view to an owning handle.
func (b Borrowed) Retain() Ref {
	return Retain(b.ptr)
}
