// Package websocket streams workflow lifecycle events to clients over a
// per-workflow WebSocket connection, filtered by workflow ID.
package websocket
