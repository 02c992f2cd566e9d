// Package async is the cooperative asynchronous-operation core: suspended
// computations (Future), the budgeted drive loop that resumes them without
// stack growth (Task), cooperative cancellation with per-CPU request
// tracking, an unload-time drain barrier (Tracker), and the reference-counted
// operation object clients poll for status and result.
//
// Scheduling back-ends implementing the Executor contract live in the
// dispatch and workitem sub-packages.
package async
