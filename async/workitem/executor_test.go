package workitem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/kom/async"
	"github.com/viant/kom/status"
)

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSubmitBlockingComputation(t *testing.T) {
	exec, err := New(WithConfig(Config{Workers: 2, QueueBuffer: 8}))
	assert.Nil(t, err)
	assert.Nil(t, exec.Start(context.Background()))
	defer exec.Shutdown(context.Background())

	polls := 0
	future := async.FutureFunc[string](func(ctx *async.Context) (string, status.Status, bool) {
		assert.Equal(t, async.LevelPassive, ctx.Level())
		polls++
		if polls == 1 {
			// Blocking is allowed here; this would be fatal at the
			// dispatch level.
			time.Sleep(5 * time.Millisecond)
			ctx.Waker().Wake()
			return "", status.Pending, false
		}
		return "blocked and resumed", status.Success, true
	})

	op, handle, st := Submit(exec, future)
	defer op.Release()
	assert.True(t, st.IsSuccess())
	assert.NotNil(t, handle)

	waitFor(t, func() bool { return op.GetStatus().Terminal() })
	value, st := op.GetResult()
	assert.True(t, st.IsSuccess())
	assert.Equal(t, "blocked and resumed", value)
}

func TestSubmitRejectedAtDispatchLevel(t *testing.T) {
	exec, err := New(WithLevelQuery(func() async.Level { return async.LevelDispatch }))
	assert.Nil(t, err)

	op, handle, st := Submit(exec, async.Ready(1, status.Success))
	defer op.Release()

	assert.Equal(t, status.Retry, st)
	assert.Nil(t, handle)
	assert.False(t, op.IsNil())
	assert.Equal(t, async.StateError, op.GetStatus())
	_, code := op.GetResult()
	assert.Equal(t, status.Retry, code)
}

func TestExternalWakeReachesWorker(t *testing.T) {
	exec, err := New(WithConfig(Config{Workers: 1, QueueBuffer: 4}))
	assert.Nil(t, err)
	assert.Nil(t, exec.Start(context.Background()))
	defer exec.Shutdown(context.Background())

	var mu sync.Mutex
	var waker *async.Waker
	future := async.FutureFunc[int](func(ctx *async.Context) (int, status.Status, bool) {
		mu.Lock()
		defer mu.Unlock()
		if waker == nil {
			waker = ctx.Waker()
			return 0, status.Pending, false
		}
		return 9, status.Success, true
	})

	op, _, st := Submit(exec, future)
	defer op.Release()
	assert.True(t, st.IsSuccess())
	assert.Equal(t, async.StateStarted, op.GetStatus())

	go func() {
		mu.Lock()
		w := waker
		mu.Unlock()
		w.Wake()
	}()

	waitFor(t, func() bool { return op.GetStatus() == async.StateCompleted })
	value, _ := op.GetResult()
	assert.Equal(t, 9, value)
}

func TestShutdownDrainsQueue(t *testing.T) {
	exec, err := New(WithConfig(Config{Workers: 1, QueueBuffer: 16}))
	assert.Nil(t, err)

	var ops []async.Operation[int]
	for i := 0; i < 5; i++ {
		var waker *async.Waker
		future := async.FutureFunc[int](func(ctx *async.Context) (int, status.Status, bool) {
			if waker == nil {
				waker = ctx.Waker()
				return 0, status.Pending, false
			}
			return 1, status.Success, true
		})
		op, _, st := Submit(exec, future)
		assert.True(t, st.IsSuccess())
		ops = append(ops, op)
		// The wake lands before any worker exists; the task waits queued.
		waker.Wake()
	}
	assert.Equal(t, 5, exec.QueueSize())

	assert.Nil(t, exec.Start(context.Background()))
	assert.Nil(t, exec.Shutdown(context.Background()))

	for i := range ops {
		assert.Equal(t, async.StateCompleted, ops[i].GetStatus())
		ops[i].Release()
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NotNil(t, (&Config{Workers: 0, QueueBuffer: 1}).Validate())
	assert.NotNil(t, (&Config{Workers: 1, QueueBuffer: 0}).Validate())
	_, err := New(WithConfig(Config{Workers: 0, QueueBuffer: 1}))
	assert.NotNil(t, err)
}
