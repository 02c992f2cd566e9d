// Package memory defines the three-operation allocator contract the runtime
// allocates through, and provides its host back-ends: a Go-heap arena, a
// size-binned slab lookaside front-end, and a provenance-tracking test
// allocator.
package memory
