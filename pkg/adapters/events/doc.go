// Package events contains EventBus implementations: Redis Streams with
// consumer groups for production use, and an in-memory bus for tests and
// demo mode.
package events
