package object_test

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/viant/kom/memory"
	"github.com/viant/kom/object"
)

var (
	iidGreeter = object.MustIID("7f1b2a40-9c3d-4e55-8a21-0d9f6c1b7e01")
	iidCounter = object.MustIID("7f1b2a40-9c3d-4e55-8a21-0d9f6c1b7e02")
)

type widget struct {
	name string
	hits int
}

func TestLifecycleTeardownOnce(t *testing.T) {
	counting := memory.NewCounting(memory.NewHeap())
	var finalized atomic.Int32

	ptr, st := object.New(widget{name: "gizmo"},
		object.WithAllocator(counting),
		object.WithFinalizer(func(w *widget) {
			assert.Equal(t, "gizmo", w.name)
			finalized.Add(1)
		}),
	)
	assert.True(t, st.IsSuccess())
	assert.NotNil(t, ptr)
	assert.Equal(t, 1, counting.Live())

	assert.EqualValues(t, 2, object.AddRef(ptr))
	assert.EqualValues(t, 1, object.Release(ptr))
	assert.EqualValues(t, 0, finalized.Load())

	assert.EqualValues(t, 0, object.Release(ptr))
	assert.EqualValues(t, 1, finalized.Load())
	assert.Equal(t, 0, counting.Live())
	assert.Empty(t, counting.Violations())
}

func TestDoubleReleaseFlagged(t *testing.T) {
	counting := memory.NewCounting(memory.NewHeap())
	ptr, st := object.New(widget{}, object.WithAllocator(counting))
	assert.True(t, st.IsSuccess())

	assert.EqualValues(t, 0, object.Release(ptr))
	assert.PanicsWithError(t, (&object.ViolationError{Kind: object.ViolationUnderflow, Ptr: uintptr(ptr)}).Error(), func() {
		object.Release(ptr)
	})
	assert.Empty(t, counting.Violations())
}

func TestQueryPrimaryIdentity(t *testing.T) {
	ptr, st := object.New(widget{name: "id"}, object.WithIID(iidGreeter))
	assert.True(t, st.IsSuccess())
	defer object.Release(ptr)

	got, st := object.Query(ptr, iidGreeter)
	assert.True(t, st.IsSuccess())
	assert.Equal(t, ptr, got)
	object.Release(got)

	got, st = object.Query(ptr, object.IIDUnknown)
	assert.True(t, st.IsSuccess())
	assert.Equal(t, ptr, got)
	object.Release(got)
}

func TestQueryUnrecognizedLeavesCountUnchanged(t *testing.T) {
	ptr, st := object.New(widget{}, object.WithIID(iidGreeter))
	assert.True(t, st.IsSuccess())
	defer object.Release(ptr)

	got, st := object.Query(ptr, iidCounter)
	assert.True(t, st.IsError())
	assert.Nil(t, got)

	// Probe the count: a failed query must not have touched it.
	assert.EqualValues(t, 2, object.AddRef(ptr))
	assert.EqualValues(t, 1, object.Release(ptr))
}

func TestQuerySecondaryStable(t *testing.T) {
	ptr, st := object.New(widget{name: "multi"},
		object.WithIID(iidGreeter),
		object.WithSecondary(iidCounter, nil),
	)
	assert.True(t, st.IsSuccess())
	defer object.Release(ptr)

	first, st := object.Query(ptr, iidCounter)
	assert.True(t, st.IsSuccess())
	assert.NotNil(t, first)
	assert.NotEqual(t, ptr, first)
	assert.Equal(t, ptr, object.FromSecondary(first))

	second, st := object.Query(ptr, iidCounter)
	assert.True(t, st.IsSuccess())
	assert.Equal(t, first, second)

	// A secondary pointer resolves ids and payload identically to the primary.
	back, st := object.Query(first, iidGreeter)
	assert.True(t, st.IsSuccess())
	assert.Equal(t, ptr, back)
	assert.Equal(t, "multi", object.Payload[widget](object.FromSecondary(second)).name)

	object.Release(back)
	object.Release(first)
	object.Release(second)
}

func TestConcurrentAddRefRelease(t *testing.T) {
	const workers = 2
	const perWorker = 10000

	var finalized atomic.Int32
	ptr, st := object.New(widget{}, object.WithFinalizer(func(*widget) {
		finalized.Add(1)
	}))
	assert.True(t, st.IsSuccess())

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				object.AddRef(ptr)
			}
			for i := 0; i < perWorker; i++ {
				object.Release(ptr)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 0, finalized.Load())
	assert.EqualValues(t, 2, object.AddRef(ptr))
	assert.EqualValues(t, 1, object.Release(ptr))

	object.Release(ptr)
	assert.EqualValues(t, 1, finalized.Load())
}

func TestAggregationDelegation(t *testing.T) {
	outer, st := object.New(widget{name: "outer"}, object.WithIID(iidGreeter))
	assert.True(t, st.IsSuccess())

	inner, st := object.New(widget{name: "inner"},
		object.WithIID(iidCounter),
		object.WithAggregated(outer),
	)
	assert.True(t, st.IsSuccess())
	ctrl := object.Control(inner)

	// Outward operations on the inner delegate to the outer identity.
	assert.EqualValues(t, 2, object.AddRef(inner))
	assert.EqualValues(t, 1, object.Release(inner))

	got, st := object.Query(inner, iidGreeter)
	assert.True(t, st.IsSuccess())
	assert.Equal(t, outer, got)
	object.Release(got)

	// The control pointer keeps acting on the inner object's own count, and
	// resolves the base id to itself.
	assert.EqualValues(t, 2, object.AddRef(ctrl))
	assert.EqualValues(t, 1, object.Release(ctrl))

	self, st := object.Query(ctrl, object.IIDUnknown)
	assert.True(t, st.IsSuccess())
	assert.Equal(t, ctrl, self)
	object.Release(self)

	assert.EqualValues(t, 0, object.Release(ctrl))
	assert.EqualValues(t, 0, object.Release(outer))
}

func TestPinRetainsLateWrites(t *testing.T) {
	ptr, st := object.New(widget{})
	assert.True(t, st.IsSuccess())
	defer object.Release(ptr)

	// A value written into record memory after construction is invisible to
	// the collector until pinned.
	late := strings.Repeat("y", 1<<14)
	object.Payload[widget](ptr).name = late
	object.Pin(ptr, late)

	runtime.GC()
	runtime.GC()

	name := object.Payload[widget](ptr).name
	assert.Equal(t, 1<<14, len(name))
	assert.Equal(t, strings.Repeat("y", 1<<14), name)
}

func TestAllocationFailure(t *testing.T) {
	ptr, st := object.New(widget{}, object.WithAllocator(exhausted{}))
	assert.Nil(t, ptr)
	assert.True(t, st.IsError())
}

func TestRefHandles(t *testing.T) {
	var finalized atomic.Int32
	ptr, st := object.New(widget{name: "handle"},
		object.WithIID(iidGreeter),
		object.WithFinalizer(func(*widget) { finalized.Add(1) }),
	)
	assert.True(t, st.IsSuccess())

	ref := object.Adopt(ptr)
	clone := ref.Clone()
	assert.Equal(t, ref.Ptr(), clone.Ptr())

	view := ref.Borrow()
	assert.Equal(t, ptr, view.Ptr())
	held := view.Retain()

	queried, qst := ref.Query(iidGreeter)
	assert.True(t, qst.IsSuccess())

	queried.Release()
	held.Release()
	clone.Release()
	assert.EqualValues(t, 0, finalized.Load())

	ref.Release()
	assert.True(t, ref.IsNil())
	assert.EqualValues(t, 1, finalized.Load())

	// Release on an empty handle is a no-op.
	ref.Release()
}

type greeterVtbl struct {
	parent unsafe.Pointer
	greet  func(this unsafe.Pointer) string
}

var greeterTable = greeterVtbl{
	parent: unsafe.Pointer(object.PrimaryUnknown()),
	greet: func(this unsafe.Pointer) string {
		return object.Payload[widget](this).name
	},
}

func TestDerivedTableDispatch(t *testing.T) {
	ptr, st := object.New(widget{name: "greet"},
		object.WithIID(iidGreeter),
		object.WithVtbl(unsafe.Pointer(&greeterTable)),
	)
	assert.True(t, st.IsSuccess())

	// Method dispatch goes through the object's own table; the base slots are
	// reached by walking the parent chain.
	table := (*greeterVtbl)(object.Vtbl(ptr))
	assert.Equal(t, "greet", table.greet(ptr))

	assert.EqualValues(t, 2, object.AddRef(ptr))
	assert.EqualValues(t, 1, object.Release(ptr))
	assert.EqualValues(t, 0, object.Release(ptr))
}

type exhausted struct{}

func (exhausted) Alloc(memory.Layout) unsafe.Pointer       { return nil }
func (exhausted) AllocZeroed(memory.Layout) unsafe.Pointer { return nil }
func (exhausted) Free(unsafe.Pointer, memory.Layout)       {}
