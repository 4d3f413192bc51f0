package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Registry maps token and chain names to their on-chain identities. It is
// external configuration state kept alongside the service, not owned by the
// workflow core.
type Registry struct {
	// Tokens maps token symbols to ledger contract addresses.
	Tokens map[string]string `yaml:"tokens"`

	// Chains maps chain aliases to numeric chain selectors.
	Chains map[string]uint64 `yaml:"chains"`
}

// LoadRegistry reads a registry from a YAML file. An empty path returns an
// empty registry, in which case chain references must be numeric.
func LoadRegistry(path string) (*Registry, error) {
	reg := &Registry{
		Tokens: make(map[string]string),
		Chains: make(map[string]uint64),
	}
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	return reg, nil
}

// ResolveChain resolves a chain reference, either a registered alias or a
// numeric chain selector, to its numeric form.
func (r *Registry) ResolveChain(ref string) (uint64, error) {
	if id, ok := r.Chains[ref]; ok {
		return id, nil
	}

	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown chain: %s", ref)
	}
	return id, nil
}

// ResolveToken resolves a token symbol to its ledger contract address.
func (r *Registry) ResolveToken(symbol string) (string, error) {
	addr, ok := r.Tokens[symbol]
	if !ok {
		return "", fmt.Errorf("unknown token: %s", symbol)
	}
	return addr, nil
}
