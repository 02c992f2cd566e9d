// Package kom is a component-object runtime for constrained hosts: binary
// convention objects with automatic dispatch tables and hardened atomic
// reference counting, plus a budgeted cooperative scheduler for asynchronous
// operations.
//
// The root package is a thin façade wiring the sub-packages together:
//
//   - memory     – the three-operation allocator contract and its back-ends
//   - object     – object layout, QueryInterface, aggregation, refcounting
//   - descriptor – declarative interface descriptors and their registry
//   - async      – futures, the budgeted drive loop, cancellation, operations
//   - async/dispatch, async/workitem – the two scheduling back-ends
//
// Typical embedding:
//
//	srv, _ := kom.New(kom.WithConfig(cfg))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	op, cancel := kom.SpawnDispatch(rt, future)
//	defer op.Release()
//	...
//	_ = rt.Shutdown(ctx)
package kom
