package object

import (
	"unsafe"

	"github.com/viant/kom/status"
)

// UnknownVtbl is the base dispatch table every interface chain terminates at.
// A derived table embeds a pointer to its parent table as field 0; the base
// table's Parent is nil, which is how Unknown finds the end of the chain.
//
// The three base slots take the interface pointer they were fetched through,
// so one static table instance serves every object of an implementation.
type UnknownVtbl struct {
	Parent         unsafe.Pointer
	QueryInterface func(this unsafe.Pointer, iid IID, out *unsafe.Pointer) status.Status
	AddRef         func(this unsafe.Pointer) uint32
	Release        func(this unsafe.Pointer) uint32
}

// Vtbl returns ptr's own dispatch table as an untyped pointer. Callers cast it
// to the table type matching ptr's interface id.
func Vtbl(ptr unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(ptr)
}

// Unknown walks ptr's dispatch chain to its base table.
func Unknown(ptr unsafe.Pointer) *UnknownVtbl {
	table := *(*unsafe.Pointer)(ptr)
	for {
		parent := *(*unsafe.Pointer)(table)
		if parent == nil {
			return (*UnknownVtbl)(table)
		}
		table = parent
	}
}

// AddRef invokes the base add-reference slot on ptr and returns the new count.
func AddRef(ptr unsafe.Pointer) uint32 {
	return Unknown(ptr).AddRef(ptr)
}

// Release invokes the base release slot on ptr and returns the new count.
func Release(ptr unsafe.Pointer) uint32 {
	return Unknown(ptr).Release(ptr)
}

// Query resolves iid through ptr's base table. On success the returned pointer
// carries its own reference.
func Query(ptr unsafe.Pointer, iid IID) (unsafe.Pointer, status.Status) {
	var out unsafe.Pointer
	st := Unknown(ptr).QueryInterface(ptr, iid, &out)
	return out, st
}

// PrimaryUnknown returns the shared base table used by primary interface
// pointers. Generated derived tables set it as their Parent.
func PrimaryUnknown() *UnknownVtbl {
	return &primaryUnknown
}

// SecondaryUnknown returns the shared base table used by secondary interface
// pointers inside a multi-interface record.
func SecondaryUnknown() *UnknownVtbl {
	return &secondaryUnknown
}

// ControlUnknown returns the shared non-delegating base table an aggregating
// outer object drives the inner object through.
func ControlUnknown() *UnknownVtbl {
	return &controlUnknown
}
