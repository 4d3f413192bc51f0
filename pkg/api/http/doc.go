// Package http implements the HTTP API surface of the workflow
// orchestrator: synchronous and asynchronous instruction submission,
// workflow state and outcome retrieval, health and metrics endpoints.
//
// The API-key check, request logging and CORS are gin middleware; outcome
// variants map to HTTP statuses in one place (statusForOutcome).
package http
