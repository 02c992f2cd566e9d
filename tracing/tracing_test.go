package tracing

import (
	"context"
	"os"
	"testing"
)

func TestTracingFile(t *testing.T) {
	fname := "testdata/span_test.txt"
	_ = os.Remove(fname)

	if err := Init("kom", "0.0.1", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "test", "INTERNAL")
	span.WithAttributes(map[string]string{"k": "v"})
	EndSpan(span, nil)
	_ = ctx

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no data written to trace file")
	}
}

func TestCountersSnapshot(t *testing.T) {
	Reset()
	IncSlabHit()
	IncSlabMiss()
	IncSlabMiss()
	IncPollTotal()
	IncPollReady()
	IncSpawned()
	IncCompleted()

	snap := Snapshot()
	if snap.SlabHits != 1 || snap.SlabMisses != 2 {
		t.Fatalf("unexpected slab counters: %+v", snap)
	}
	if snap.PollsTotal != 1 || snap.PollsReady != 1 {
		t.Fatalf("unexpected poll counters: %+v", snap)
	}
	if snap.Spawned != 1 || snap.Completed != 1 {
		t.Fatalf("unexpected operation counters: %+v", snap)
	}

	Reset()
	if got := Snapshot(); got != (Metrics{}) {
		t.Fatalf("reset left counters: %+v", got)
	}
}
