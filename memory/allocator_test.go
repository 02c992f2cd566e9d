package memory

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/viant/kom/tracing"
)

func TestHeapAllocAlignment(t *testing.T) {
	heap := NewHeap()
	for _, align := range []uintptr{1, 8, 16, 64, 128} {
		layout := Layout{Size: 96, Align: align}
		ptr := heap.Alloc(layout)
		assert.NotNil(t, ptr)
		assert.EqualValues(t, 0, uintptr(ptr)%align, "alignment %d", align)
		heap.Free(ptr, layout)
	}
	assert.EqualValues(t, 0, heap.Live())
}

func TestHeapZeroSized(t *testing.T) {
	heap := NewHeap()
	layout := Layout{Size: 0, Align: 1}
	p1 := heap.Alloc(layout)
	p2 := heap.Alloc(layout)
	assert.NotNil(t, p1)
	assert.Equal(t, p1, p2)
	heap.Free(p1, layout)
	assert.EqualValues(t, 0, heap.Live())
}

func TestHeapWriteReadBack(t *testing.T) {
	heap := NewHeap()
	layout := LayoutOf[[32]uint64]()
	ptr := heap.AllocZeroed(layout)
	assert.NotNil(t, ptr)

	words := (*[32]uint64)(ptr)
	for i := range words {
		assert.EqualValues(t, 0, words[i])
		words[i] = uint64(i) * 7
	}
	for i := range words {
		assert.EqualValues(t, uint64(i)*7, words[i])
	}
	heap.Free(ptr, layout)
}

func TestSlabBinReuse(t *testing.T) {
	tracing.Reset()
	counting := NewCounting(NewHeap())
	slab := NewSlab(counting, nil)

	layout := Layout{Size: 200, Align: 16}
	p1 := slab.Alloc(layout)
	assert.NotNil(t, p1)
	slab.Free(p1, layout)

	// The freed block goes back to its bin, so a compatible request should
	// not reach the base allocator again.
	p2 := slab.Alloc(Layout{Size: 256, Align: 8})
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, counting.Allocs())

	snap := tracing.Snapshot()
	assert.EqualValues(t, 1, snap.SlabHits)
	assert.EqualValues(t, 1, snap.SlabMisses)

	slab.Free(p2, Layout{Size: 256, Align: 8})
	slab.Close()
	assert.EqualValues(t, 0, counting.Live())
	assert.Empty(t, counting.Violations())
}

func TestSlabOversizeFallsThrough(t *testing.T) {
	counting := NewCounting(NewHeap())
	slab := NewSlab(counting, nil)

	layout := Layout{Size: 4096, Align: 8}
	ptr := slab.Alloc(layout)
	assert.NotNil(t, ptr)
	slab.Free(ptr, layout)
	assert.EqualValues(t, 0, counting.Live())

	strict := Layout{Size: 64, Align: 128}
	ptr = slab.Alloc(strict)
	assert.NotNil(t, ptr)
	assert.EqualValues(t, 0, uintptr(ptr)%128)
	slab.Free(ptr, strict)
	assert.EqualValues(t, 0, counting.Live())
}

func TestSlabZeroedRecycledBlock(t *testing.T) {
	slab := NewSlab(NewHeap(), nil)
	layout := Layout{Size: 128, Align: 8}

	ptr := slab.Alloc(layout)
	buf := unsafe.Slice((*byte)(ptr), layout.Size)
	for i := range buf {
		buf[i] = 0xAB
	}
	slab.Free(ptr, layout)

	ptr = slab.AllocZeroed(layout)
	buf = unsafe.Slice((*byte)(ptr), layout.Size)
	for i := range buf {
		assert.EqualValues(t, 0, buf[i], "byte %d", i)
	}
	slab.Free(ptr, layout)
	slab.Close()
}

func TestCountingViolations(t *testing.T) {
	counting := NewCounting(NewHeap())

	layout := Layout{Size: 64, Align: 8}
	ptr := counting.Alloc(layout)
	assert.NotNil(t, ptr)

	var stray int64
	counting.Free(unsafe.Pointer(&stray), layout)
	assert.Len(t, counting.Violations(), 1)

	counting.Free(ptr, Layout{Size: 32, Align: 8})
	violations := counting.Violations()
	assert.Len(t, violations, 2)
	assert.Contains(t, violations[1], "layout mismatch")

	counting.Free(ptr, layout)
	assert.Len(t, counting.Violations(), 3)
	assert.Equal(t, 1, counting.Allocs())
	assert.Equal(t, 1, counting.Frees())
	assert.Equal(t, 0, counting.Live())
}

func TestTryAllocExhaustion(t *testing.T) {
	ptr, st := TryAlloc(exhausted{}, Layout{Size: 8, Align: 8})
	assert.Nil(t, ptr)
	assert.True(t, st.IsError())

	ptr, st = TryAlloc(NewHeap(), Layout{Size: 8, Align: 8})
	assert.NotNil(t, ptr)
	assert.True(t, st.IsSuccess())
}

type exhausted struct{}

func (exhausted) Alloc(Layout) unsafe.Pointer       { return nil }
func (exhausted) AllocZeroed(Layout) unsafe.Pointer { return nil }
func (exhausted) Free(unsafe.Pointer, Layout)       {}
