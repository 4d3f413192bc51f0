// Package reserve provides proof-of-reserve sources: an HTTP client for a
// live reserve attestation endpoint and a static source carrying a fixed
// configured value for demo use. Snapshots are fetched fresh per validation
// and never cached.
package reserve
