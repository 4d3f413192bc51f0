// Package workers implements the worker pool for asynchronously submitted
// workflows.
//
// The pool manages a fixed number of goroutines that:
//   - Consume instruction submission events from the event bus
//   - Drive each instruction through the pipeline runner
//   - Persist the terminal outcome through the workflow manager
//
// A health monitor periodically records pool gauges and flags workers stuck
// past the workflow deadline.
package workers
