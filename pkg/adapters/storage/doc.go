// Package storage contains OutcomeStore implementations: a Redis store for
// production use and an in-memory store for tests and demo mode. Both
// persist workflow states and enforce transaction-ID uniqueness within the
// retention window.
package storage
