// Package config provides configuration management for the PoR workflow
// orchestrator.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use; the
// defaults select the in-memory adapters, the static reserve source and the
// local auto-confirming report submitter (demo mode).
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
//
// An optional YAML registry file maps token symbols and chain aliases to
// their on-chain identities.
package config
