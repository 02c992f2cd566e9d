package async

import (
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/viant/kom/object"
	"github.com/viant/kom/status"
)

// IIDOperation identifies the asynchronous-operation interface.
var IIDOperation = object.MustIID("a6c1f3d2-5b84-4d17-9e02-3c7a8b64e1a0")

// OperationVtbl is the dispatch table of the asynchronous-operation
// interface. One static instance exists per result type.
type OperationVtbl struct {
	Parent    unsafe.Pointer
	GetStatus func(this unsafe.Pointer) State
	// GetResult returns the pending code while Started, the terminal code
	// otherwise, and stores the value through out only when Completed.
	GetResult func(this unsafe.Pointer, out unsafe.Pointer) status.Status
}

// opShared is the type-independent part of an operation record. The fields
// are accessed atomically; the state store is the last write of a transition,
// so a reader observing a terminal state also observes the code and value.
type opShared struct {
	state uint32
	code  int32
}

type opPayload[T any] struct {
	shared opShared
	value  T
}

func (p *opShared) publish(final State, st status.Status) {
	atomic.StoreInt32(&p.code, int32(st))
	atomic.StoreUint32(&p.state, uint32(final))
}

var operationTables sync.Map

// operationVtbl returns the shared dispatch table for result type T.
func operationVtbl[T any]() *OperationVtbl {
	key := reflect.TypeFor[T]()
	if cached, ok := operationTables.Load(key); ok {
		return cached.(*OperationVtbl)
	}
	table := &OperationVtbl{
		Parent: unsafe.Pointer(object.PrimaryUnknown()),
		GetStatus: func(this unsafe.Pointer) State {
			payload := object.Payload[opPayload[T]](this)
			return State(atomic.LoadUint32(&payload.shared.state))
		},
		GetResult: func(this unsafe.Pointer, out unsafe.Pointer) status.Status {
			payload := object.Payload[opPayload[T]](this)
			switch State(atomic.LoadUint32(&payload.shared.state)) {
			case StateStarted:
				return status.Pending
			case StateCompleted:
				if out != nil {
					*(*T)(out) = payload.value
				}
				return status.Status(atomic.LoadInt32(&payload.shared.code))
			default:
				return status.Status(atomic.LoadInt32(&payload.shared.code))
			}
		},
	}
	actual, _ := operationTables.LoadOrStore(key, table)
	return actual.(*OperationVtbl)
}

// Operation is a typed owning handle on an asynchronous-operation object. The
// zero Operation is empty.
type Operation[T any] struct {
	ref object.Ref
}

// Ptr returns the raw interface pointer without affecting ownership.
func (o Operation[T]) Ptr() unsafe.Pointer {
	return o.ref.Ptr()
}

// IsNil reports whether the handle is empty.
func (o Operation[T]) IsNil() bool {
	return o.ref.IsNil()
}

// GetStatus returns the operation's lifecycle state.
func (o Operation[T]) GetStatus() State {
	ptr := o.ref.Ptr()
	table := (*OperationVtbl)(object.Vtbl(ptr))
	return table.GetStatus(ptr)
}

// GetResult returns the pending code while Started; once terminal it returns
// the stored code, with the value populated only on Completed.
func (o Operation[T]) GetResult() (T, status.Status) {
	var value T
	ptr := o.ref.Ptr()
	table := (*OperationVtbl)(object.Vtbl(ptr))
	st := table.GetResult(ptr, unsafe.Pointer(&value))
	return value, st
}

// Clone returns a second owning handle on the same operation.
func (o Operation[T]) Clone() Operation[T] {
	return Operation[T]{ref: o.ref.Clone()}
}

// Release gives up the handle's reference.
func (o *Operation[T]) Release() {
	o.ref.Release()
}
