package memory

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/viant/kom/tracing"
)

// slabAlign is the alignment every bin block satisfies; requests with a
// stricter alignment bypass the bins.
const slabAlign = 64

var slabBins = [...]uintptr{128, 256, 512, 1024, 2048}

// Slab is a size-binned lookaside front-end over a base allocator. Blocks
// released into a bin are retained for reuse instead of going back to the
// base allocator; sync.Pool provides the per-P free lists. Requests that fit
// no bin fall through to the base allocator unchanged.
type Slab struct {
	base   Allocator
	pools  [len(slabBins)]sync.Pool
	logger *zap.Logger

	mu     sync.Mutex
	blocks map[uintptr]Layout
	closed bool
}

// NewSlab creates a slab front-end over base. A nil logger disables logging.
func NewSlab(base Allocator, logger *zap.Logger) *Slab {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slab{
		base:   base,
		logger: logger,
		blocks: make(map[uintptr]Layout),
	}
}

// binFor returns the bin index for a layout, or -1 when it fits no bin.
func binFor(layout Layout) int {
	if layout.Align > slabAlign {
		return -1
	}
	for i, size := range slabBins {
		if layout.Size <= size {
			return i
		}
	}
	return -1
}

// Alloc implements Allocator.
func (s *Slab) Alloc(layout Layout) unsafe.Pointer {
	if layout.Size == 0 {
		return unsafe.Pointer(&zeroSized)
	}
	idx := binFor(layout)
	if idx < 0 {
		return s.base.Alloc(layout)
	}
	if cached := s.pools[idx].Get(); cached != nil {
		tracing.IncSlabHit()
		return cached.(unsafe.Pointer)
	}
	tracing.IncSlabMiss()
	ptr := s.base.Alloc(Layout{Size: slabBins[idx], Align: slabAlign})
	if ptr == nil {
		return nil
	}
	s.mu.Lock()
	s.blocks[uintptr(ptr)] = Layout{Size: slabBins[idx], Align: slabAlign}
	s.mu.Unlock()
	return ptr
}

// AllocZeroed implements Allocator. Recycled bin blocks carry stale bytes, so
// the window is cleared explicitly.
func (s *Slab) AllocZeroed(layout Layout) unsafe.Pointer {
	ptr := s.Alloc(layout)
	if ptr != nil && ptr != unsafe.Pointer(&zeroSized) {
		Memclr(ptr, layout.Size)
	}
	return ptr
}

// Free implements Allocator. Bin-sized blocks go back to their bin; oversize
// blocks return to the base allocator.
func (s *Slab) Free(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil || layout.Size == 0 {
		return
	}
	idx := binFor(layout)
	if idx < 0 {
		s.base.Free(ptr, layout)
		return
	}
	s.pools[idx].Put(ptr)
}

// Close releases every bin block back to the base allocator. Callers must
// ensure no allocation is outstanding; typically this runs after the
// tracker's drain barrier at unload.
func (s *Slab) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for addr, layout := range s.blocks {
		s.base.Free(unsafe.Pointer(addr), layout)
		delete(s.blocks, addr)
	}
	s.logger.Debug("slab closed")
}
