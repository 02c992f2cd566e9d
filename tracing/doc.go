// Package tracing integrates observability back-ends with the object runtime
// to provide distributed tracing information and lightweight runtime counters.
// All instrumentation is kept in a separate package so that applications which
// do not require tracing can exclude it from their build.
package tracing
