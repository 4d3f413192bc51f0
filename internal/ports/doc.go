// Package ports defines the interfaces between the workflow core and its
// adapters: the reserve source, the signed-report submission capability, the
// workflow state store, the event bus and the metrics collector.
//
// The core depends only on these interfaces; concrete implementations live
// under pkg/adapters.
package ports
