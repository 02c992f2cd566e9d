package object

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/viant/kom/memory"
	"github.com/viant/kom/status"
)

const (
	flagHardened   uint32 = 1 << 0
	flagAggregated uint32 = 1 << 1
)

// control is the non-delegating identity an aggregating outer object holds on
// its inner object. Its address doubles as the control interface pointer.
type control struct {
	vtbl unsafe.Pointer
}

// secondary is one extra interface slot inside a multi-interface record. Its
// address doubles as the outward interface pointer; backOff recovers the
// record base from it.
type secondary struct {
	vtbl    unsafe.Pointer
	backOff uintptr
	iid     IID
}

// record is the fixed-order header of every allocation. The record address
// doubles as the primary interface pointer, so vtbl must remain a valid table
// pointer at offset 0 for the object's entire lifetime.
type record struct {
	vtbl   unsafe.Pointer
	ctrl   control
	outer  unsafe.Pointer
	refs   atomic.Uint32
	flags  uint32
	iid    IID
	secOff uintptr
	nsec   uintptr
	payOff uintptr
	total  uintptr
	algn   uintptr
}

var recordProto record

var (
	ctrlOffset    = unsafe.Offsetof(recordProto.ctrl)
	secondarySize = unsafe.Sizeof(secondary{})
)

// anchor retains the Go-managed values a raw record refers to: its allocator,
// finalizer, dispatch tables and the initial payload value. Record memory is
// not scanned by the collector, so anything reachable only from it must also
// be reachable from here for as long as the allocation is live.
type anchor struct {
	alloc   memory.Allocator
	final   func(payload unsafe.Pointer)
	tables  []unsafe.Pointer
	payload any

	mu     sync.Mutex
	pinned []any
}

func (a *anchor) pin(value any) {
	a.mu.Lock()
	a.pinned = append(a.pinned, value)
	a.mu.Unlock()
}

// anchors maps the record base address to its anchor.
var anchors sync.Map

type secondaryDecl struct {
	iid  IID
	vtbl unsafe.Pointer
}

type builder struct {
	alloc    memory.Allocator
	iid      IID
	vtbl     unsafe.Pointer
	outer    unsafe.Pointer
	hardened bool
	secs     []secondaryDecl
	final    func(payload unsafe.Pointer)
}

// Option customises construction.
type Option func(*builder)

// WithAllocator sets the allocator the record is carved from and later freed
// through.
func WithAllocator(alloc memory.Allocator) Option {
	return func(b *builder) {
		if alloc != nil {
			b.alloc = alloc
		}
	}
}

// WithIID sets the primary interface id.
func WithIID(iid IID) Option {
	return func(b *builder) {
		b.iid = iid
	}
}

// WithVtbl sets the primary dispatch table. The table's chain must terminate
// at PrimaryUnknown().
func WithVtbl(vtbl unsafe.Pointer) Option {
	return func(b *builder) {
		b.vtbl = vtbl
	}
}

// WithSecondary declares an extra interface slot. A nil vtbl selects the
// shared secondary base table; a custom table's chain must terminate at
// SecondaryUnknown().
func WithSecondary(iid IID, vtbl unsafe.Pointer) Option {
	return func(b *builder) {
		b.secs = append(b.secs, secondaryDecl{iid: iid, vtbl: vtbl})
	}
}

// WithAggregated marks the object as aggregated inside outer: its outward
// interfaces delegate identity operations to outer, while the control pointer
// keeps acting on the inner count. The outer object must outlive the inner.
func WithAggregated(outer unsafe.Pointer) Option {
	return func(b *builder) {
		b.outer = outer
	}
}

// WithHardening toggles fatal detection of reference-count contract
// violations. Enabled by default.
func WithHardening(enabled bool) Option {
	return func(b *builder) {
		b.hardened = enabled
	}
}

// WithFinalizer registers payload teardown, run exactly once when the count
// reaches zero, before the allocation is returned to its allocator.
func WithFinalizer[T any](fn func(payload *T)) Option {
	return func(b *builder) {
		b.final = func(p unsafe.Pointer) {
			fn((*T)(p))
		}
	}
}

// New allocates a record holding payload and returns its primary interface
// pointer with a reference count of one. On allocator exhaustion it returns
// nil and the insufficient-resources code.
func New[T any](payload T, options ...Option) (unsafe.Pointer, status.Status) {
	b := &builder{alloc: memory.Default(), iid: IIDUnknown, hardened: true}
	for _, option := range options {
		option(b)
	}

	payLayout := memory.LayoutOf[T]()
	secOff := alignUp(unsafe.Sizeof(record{}), unsafe.Alignof(secondary{}))
	payOff := alignUp(secOff+uintptr(len(b.secs))*secondarySize, maxAlign(payLayout.Align, 1))
	total := payOff + payLayout.Size
	algn := maxAlign(unsafe.Alignof(record{}), maxAlign(unsafe.Alignof(secondary{}), payLayout.Align))

	base, st := memory.TryAlloc(b.alloc, memory.Layout{Size: total, Align: algn})
	if st.IsError() {
		return nil, st
	}

	r := (*record)(base)
	r.vtbl = b.vtbl
	if r.vtbl == nil {
		r.vtbl = unsafe.Pointer(&primaryUnknown)
	}
	r.ctrl.vtbl = unsafe.Pointer(&controlUnknown)
	r.outer = b.outer
	r.refs.Store(1)
	r.flags = 0
	if b.hardened {
		r.flags |= flagHardened
	}
	if b.outer != nil {
		r.flags |= flagAggregated
	}
	r.iid = b.iid
	r.secOff = secOff
	r.nsec = uintptr(len(b.secs))
	r.payOff = payOff
	r.total = total
	r.algn = algn

	tables := []unsafe.Pointer{r.vtbl}
	for i, decl := range b.secs {
		off := secOff + uintptr(i)*secondarySize
		slot := (*secondary)(unsafe.Add(base, off))
		slot.vtbl = decl.vtbl
		if slot.vtbl == nil {
			slot.vtbl = unsafe.Pointer(&secondaryUnknown)
		}
		slot.backOff = off
		slot.iid = decl.iid
		tables = append(tables, slot.vtbl)
	}
	*(*T)(unsafe.Add(base, payOff)) = payload

	anchors.Store(uintptr(base), &anchor{
		alloc:   b.alloc,
		final:   b.final,
		tables:  tables,
		payload: payload,
	})
	return base, status.Success
}

// Pin retains value in the record's anchor until teardown. Writers that
// store Go-managed data into record memory after construction must pin it:
// the collector does not scan the record, so the record must never be the
// sole reference to a heap value.
func Pin(ptr unsafe.Pointer, value any) {
	if entry, ok := anchors.Load(uintptr(ptr)); ok {
		entry.(*anchor).pin(value)
	}
}

// Payload returns the typed payload behind a primary interface pointer.
func Payload[T any](ptr unsafe.Pointer) *T {
	r := (*record)(ptr)
	return (*T)(unsafe.Add(ptr, r.payOff))
}

// Control returns the non-delegating control pointer of the record behind a
// primary interface pointer.
func Control(ptr unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(ptr, ctrlOffset)
}

// FromSecondary recovers the primary interface pointer from a secondary one.
func FromSecondary(ptr unsafe.Pointer) unsafe.Pointer {
	slot := (*secondary)(ptr)
	return unsafe.Add(ptr, -int(slot.backOff))
}

var (
	primaryUnknown   = UnknownVtbl{QueryInterface: primaryQuery, AddRef: primaryAddRef, Release: primaryRelease}
	secondaryUnknown = UnknownVtbl{QueryInterface: secondaryQuery, AddRef: secondaryAddRef, Release: secondaryRelease}
	controlUnknown   = UnknownVtbl{QueryInterface: controlQuery, AddRef: controlAddRef, Release: controlRelease}
)

func primaryAddRef(this unsafe.Pointer) uint32 {
	r := (*record)(this)
	if r.flags&flagAggregated != 0 {
		return AddRef(r.outer)
	}
	return r.addRef()
}

func primaryRelease(this unsafe.Pointer) uint32 {
	r := (*record)(this)
	if r.flags&flagAggregated != 0 {
		return Release(r.outer)
	}
	return r.release()
}

func primaryQuery(this unsafe.Pointer, iid IID, out *unsafe.Pointer) status.Status {
	r := (*record)(this)
	if r.flags&flagAggregated != 0 {
		return Unknown(r.outer).QueryInterface(r.outer, iid, out)
	}
	return r.resolve(iid, out)
}

func secondaryBase(this unsafe.Pointer) *record {
	return (*record)(FromSecondary(this))
}

func secondaryAddRef(this unsafe.Pointer) uint32 {
	r := secondaryBase(this)
	if r.flags&flagAggregated != 0 {
		return AddRef(r.outer)
	}
	return r.addRef()
}

func secondaryRelease(this unsafe.Pointer) uint32 {
	r := secondaryBase(this)
	if r.flags&flagAggregated != 0 {
		return Release(r.outer)
	}
	return r.release()
}

func secondaryQuery(this unsafe.Pointer, iid IID, out *unsafe.Pointer) status.Status {
	r := secondaryBase(this)
	if r.flags&flagAggregated != 0 {
		return Unknown(r.outer).QueryInterface(r.outer, iid, out)
	}
	return r.resolve(iid, out)
}

func controlBase(this unsafe.Pointer) *record {
	return (*record)(unsafe.Add(this, -int(ctrlOffset)))
}

func controlAddRef(this unsafe.Pointer) uint32 {
	return controlBase(this).addRef()
}

func controlRelease(this unsafe.Pointer) uint32 {
	return controlBase(this).release()
}

// controlQuery resolves ids against the inner object only. The base id maps to
// the control pointer itself, so the inner identity never leaks through an
// aggregate's outward surface.
func controlQuery(this unsafe.Pointer, iid IID, out *unsafe.Pointer) status.Status {
	if out == nil {
		return status.InvalidParameter
	}
	r := controlBase(this)
	if iid == IIDUnknown {
		r.addRef()
		*out = this
		return status.Success
	}
	return r.resolve(iid, out)
}

// resolve maps iid onto a stable pointer inside the allocation. Every success
// carries its own reference; an unrecognized id leaves the count unchanged.
func (r *record) resolve(iid IID, out *unsafe.Pointer) status.Status {
	if out == nil {
		return status.InvalidParameter
	}
	base := unsafe.Pointer(r)
	if iid == IIDUnknown || iid == r.iid {
		r.addRef()
		*out = base
		return status.Success
	}
	for i := uintptr(0); i < r.nsec; i++ {
		slot := (*secondary)(unsafe.Add(base, r.secOff+i*secondarySize))
		if slot.iid == iid {
			r.addRef()
			*out = unsafe.Pointer(slot)
			return status.Success
		}
	}
	*out = nil
	return status.NoInterface
}

func alignUp(value, align uintptr) uintptr {
	return (value + align - 1) &^ (align - 1)
}

func maxAlign(a, b uintptr) uintptr {
	if a > b {
		return a
	}
	return b
}
