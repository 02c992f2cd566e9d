package kom_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/kom"
	"github.com/viant/kom/async"
	"github.com/viant/kom/object"
	"github.com/viant/kom/status"
)

func TestLoadConfig(t *testing.T) {
	config, err := kom.LoadConfig(context.Background(), "testdata/config.yaml")
	assert.Nil(t, err)
	assert.True(t, config.Hardening)
	assert.Equal(t, 2, config.Dispatch.CPUs)
	assert.Equal(t, 3, config.WorkItem.Workers)
	assert.Equal(t, 10, config.WorkItem.QueueBuffer)
	assert.Equal(t, "interactive:8,batch:512", config.Budgets)
}

func TestNewConfigFromMap(t *testing.T) {
	config, err := kom.NewConfigFromMap(map[string]interface{}{
		"budgets": "default:32",
		"workItem": map[string]interface{}{
			"workers": 1,
		},
	})
	assert.Nil(t, err)
	assert.Equal(t, "default:32", config.Budgets)
	assert.Equal(t, 1, config.WorkItem.Workers)
	// Untouched settings keep their defaults.
	assert.True(t, config.Hardening)
	assert.Equal(t, 100, config.WorkItem.QueueBuffer)

	_, err = kom.NewConfigFromMap(map[string]interface{}{"budgets": "warp:1"})
	assert.NotNil(t, err)
}

func TestServiceValidation(t *testing.T) {
	config := kom.DefaultConfig()
	config.Dispatch.CPUs = 0
	_, err := kom.New(kom.WithConfig(config))
	assert.NotNil(t, err)

	_, err = kom.New(kom.WithDescriptors("not a descriptor"))
	assert.NotNil(t, err)
}

func TestRuntimeLifecycle(t *testing.T) {
	config, err := kom.LoadConfig(context.Background(), "testdata/config.yaml")
	assert.Nil(t, err)

	srv, err := kom.New(
		kom.WithConfig(config),
		kom.WithDescriptors("IEcho {7f1b2a40-9c3d-4e55-8a21-0d9f6c1b7e20} { Echo }"),
	)
	assert.Nil(t, err)
	assert.EqualValues(t, 8, srv.Budgets().Interactive)
	assert.EqualValues(t, 512, srv.Budgets().Batch)

	echo := srv.Registry().LookupName("IEcho")
	if assert.NotNil(t, echo) {
		assert.Equal(t, []string{"Echo"}, echo.Methods)
	}

	rt := srv.Runtime()
	assert.Nil(t, rt.Start(context.Background()))
	assert.NotNil(t, rt.Start(context.Background()))

	// Objects come from the service allocator with the configured hardening.
	ptr, st := kom.NewObject(rt, struct{ n int }{n: 1}, object.WithIID(echo.IID))
	assert.True(t, st.IsSuccess())
	assert.EqualValues(t, 0, object.Release(ptr))

	steps := 0
	op, _ := kom.SpawnDispatch(rt, async.FutureFunc[int](func(ctx *async.Context) (int, status.Status, bool) {
		steps++
		if steps >= 5 {
			return steps, status.Success, true
		}
		ctx.Waker().Wake()
		return 0, status.Pending, false
	}), async.WithClass(async.ClassInteractive))
	defer op.Release()

	wiOp, _, st := kom.SpawnWorkItem(rt, async.Ready("ok", status.Success))
	defer wiOp.Release()
	assert.True(t, st.IsSuccess())

	// Shutdown drains the tracker before stopping anything.
	assert.Nil(t, rt.Shutdown(context.Background()))
	assert.Equal(t, 0, srv.Tracker().Active())
	assert.Equal(t, async.StateCompleted, op.GetStatus())
	assert.Equal(t, async.StateCompleted, wiOp.GetStatus())
}
