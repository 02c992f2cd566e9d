// Package object implements the binary component-object convention: every
// object is one allocation whose address doubles as its primary interface
// pointer, with a dispatch-table pointer at offset 0, an atomic reference
// count, optional secondary interface slots, and the allocator handle the
// record was carved from. Interface-id resolution, aggregation and hardened
// reference counting live here; dispatch tables themselves are authored by
// callers (typically generated) and chain to the base tables this package
// provides.
//
// Unsafe contract: interface pointers are raw and unchecked. Callers must keep
// an aggregating outer object alive for its inner object's lifetime, must
// balance every add-reference with one release, and must not let record memory
// hold the only reference to a garbage-collected value.
package object
