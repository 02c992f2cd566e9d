package tracing

import "sync/atomic"

// Metrics aggregates the runtime counters maintained by the allocator and the
// executors. All counters are monotonic between Reset calls.
type Metrics struct {
	SlabHits       uint64
	SlabMisses     uint64
	PollsTotal     uint64
	PollsReady     uint64
	PollsPending   uint64
	WakesEnqueued  uint64
	WakesCoalesced uint64
	Spawned        uint64
	Completed      uint64
	Canceled       uint64
	Errored        uint64
}

var counters struct {
	slabHits       atomic.Uint64
	slabMisses     atomic.Uint64
	pollsTotal     atomic.Uint64
	pollsReady     atomic.Uint64
	pollsPending   atomic.Uint64
	wakesEnqueued  atomic.Uint64
	wakesCoalesced atomic.Uint64
	spawned        atomic.Uint64
	completed      atomic.Uint64
	canceled       atomic.Uint64
	errored        atomic.Uint64
}

// IncSlabHit counts an allocation served from a slab bin.
func IncSlabHit() { counters.slabHits.Add(1) }

// IncSlabMiss counts an allocation the slab forwarded to its base allocator.
func IncSlabMiss() { counters.slabMisses.Add(1) }

// IncPollTotal counts a single future poll.
func IncPollTotal() { counters.pollsTotal.Add(1) }

// IncPollReady counts a poll that produced a final result.
func IncPollReady() { counters.pollsReady.Add(1) }

// IncPollPending counts a poll that returned pending.
func IncPollPending() { counters.pollsPending.Add(1) }

// IncWakeEnqueued counts a wake that enqueued its task.
func IncWakeEnqueued() { counters.wakesEnqueued.Add(1) }

// IncWakeCoalesced counts a wake absorbed by an already pending enqueue.
func IncWakeCoalesced() { counters.wakesCoalesced.Add(1) }

// IncSpawned counts a spawned operation.
func IncSpawned() { counters.spawned.Add(1) }

// IncCompleted counts an operation that finished successfully.
func IncCompleted() { counters.completed.Add(1) }

// IncCanceled counts an operation that finished canceled.
func IncCanceled() { counters.canceled.Add(1) }

// IncErrored counts an operation that finished with an error.
func IncErrored() { counters.errored.Add(1) }

// Snapshot returns the current counter values.
func Snapshot() Metrics {
	return Metrics{
		SlabHits:       counters.slabHits.Load(),
		SlabMisses:     counters.slabMisses.Load(),
		PollsTotal:     counters.pollsTotal.Load(),
		PollsReady:     counters.pollsReady.Load(),
		PollsPending:   counters.pollsPending.Load(),
		WakesEnqueued:  counters.wakesEnqueued.Load(),
		WakesCoalesced: counters.wakesCoalesced.Load(),
		Spawned:        counters.spawned.Load(),
		Completed:      counters.completed.Load(),
		Canceled:       counters.canceled.Load(),
		Errored:        counters.errored.Load(),
	}
}

// Reset zeroes all counters. Intended for tests.
func Reset() {
	counters.slabHits.Store(0)
	counters.slabMisses.Store(0)
	counters.pollsTotal.Store(0)
	counters.pollsReady.Store(0)
	counters.pollsPending.Store(0)
	counters.wakesEnqueued.Store(0)
	counters.wakesCoalesced.Store(0)
	counters.spawned.Store(0)
	counters.completed.Store(0)
	counters.canceled.Store(0)
	counters.errored.Store(0)
}
