package memory

import (
	"fmt"
	"sync"
	"unsafe"
)

// Counting wraps an allocator and records the provenance of every live
// allocation so tests can verify that each Free echoes the layout that
// produced the pointer, and that nothing leaks or double-frees.
type Counting struct {
	base Allocator

	mu         sync.Mutex
	live       map[uintptr]Layout
	allocs     int
	frees      int
	violations []string
}

// NewCounting creates a provenance-tracking allocator over base.
func NewCounting(base Allocator) *Counting {
	return &Counting{base: base, live: make(map[uintptr]Layout)}
}

// Alloc implements Allocator.
func (c *Counting) Alloc(layout Layout) unsafe.Pointer {
	ptr := c.base.Alloc(layout)
	c.record(ptr, layout)
	return ptr
}

// AllocZeroed implements Allocator.
func (c *Counting) AllocZeroed(layout Layout) unsafe.Pointer {
	ptr := c.base.AllocZeroed(layout)
	c.record(ptr, layout)
	return ptr
}

func (c *Counting) record(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allocs++
	c.live[uintptr(ptr)] = layout
}

// Free implements Allocator. A pointer this allocator never produced, or a
// layout mismatch, is recorded as a violation rather than forwarded.
func (c *Counting) Free(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil || layout.Size == 0 {
		return
	}
	c.mu.Lock()
	recorded, ok := c.live[uintptr(ptr)]
	if !ok {
		c.violations = append(c.violations, fmt.Sprintf("free of unknown pointer %#x", uintptr(ptr)))
		c.mu.Unlock()
		return
	}
	if recorded != layout {
		c.violations = append(c.violations, fmt.Sprintf("layout mismatch at %#x: allocated %+v, freed %+v", uintptr(ptr), recorded, layout))
	}
	delete(c.live, uintptr(ptr))
	c.frees++
	c.mu.Unlock()
	c.base.Free(ptr, recorded)
}

// Live returns the number of outstanding allocations.
func (c *Counting) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Allocs returns the total allocation count.
func (c *Counting) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocs
}

// Frees returns the total free count.
func (c *Counting) Frees() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frees
}

// Violations returns every recorded provenance violation.
func (c *Counting) Violations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.violations...)
}
