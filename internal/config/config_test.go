package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "static", cfg.Reserve.Mode)
	assert.Equal(t, "500000", cfg.Reserve.StaticValue)
	assert.Empty(t, cfg.Forwarder.Endpoint)
	assert.Equal(t, "policy", cfg.Forwarder.RejectionSignal)
	assert.Equal(t, int32(18), cfg.Pipeline.Decimals)
	assert.Equal(t, "custody-pool", cfg.Pipeline.CustodyAccount)
	assert.Equal(t, "simple", cfg.Pipeline.ReservePolicy)
	assert.Equal(t, 5, cfg.Workers.PoolSize)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.WorkflowTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORFLOW_HTTP_PORT", "8181")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RESERVE_MODE", "http")
	t.Setenv("RESERVE_ENDPOINT", "http://reserves.example.com/snapshot")
	t.Setenv("PIPELINE_DECIMALS", "6")
	t.Setenv("WORKER_POOL_SIZE", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "http", cfg.Reserve.Mode)
	assert.Equal(t, int32(6), cfg.Pipeline.Decimals)
	assert.Equal(t, 2, cfg.Workers.PoolSize)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			HTTPPort: 8080,
			GRPCPort: 9090,
			LogLevel: "info",
		}
		cfg.Reserve.Mode = "static"
		cfg.Reserve.StaticValue = "500000"
		cfg.Pipeline.Decimals = 18
		cfg.Pipeline.CustodyAccount = "custody-pool"
		cfg.Pipeline.ReservePolicy = "simple"
		cfg.Workers.PoolSize = 5
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad http port", mutate: func(c *Config) { c.HTTPPort = 0 }, wantErr: true},
		{name: "bad grpc port", mutate: func(c *Config) { c.GRPCPort = 70000 }, wantErr: true},
		{name: "unknown reserve mode", mutate: func(c *Config) { c.Reserve.Mode = "oracle" }, wantErr: true},
		{name: "http mode without endpoint", mutate: func(c *Config) { c.Reserve.Mode = "http" }, wantErr: true},
		{name: "static mode without value", mutate: func(c *Config) { c.Reserve.StaticValue = "" }, wantErr: true},
		{name: "negative decimals", mutate: func(c *Config) { c.Pipeline.Decimals = -1 }, wantErr: true},
		{name: "oversized decimals", mutate: func(c *Config) { c.Pipeline.Decimals = 31 }, wantErr: true},
		{name: "missing custody account", mutate: func(c *Config) { c.Pipeline.CustodyAccount = "" }, wantErr: true},
		{name: "unknown reserve policy", mutate: func(c *Config) { c.Pipeline.ReservePolicy = "strict" }, wantErr: true},
		{
			name:    "supply-aware without endpoint",
			mutate:  func(c *Config) { c.Pipeline.ReservePolicy = "supply-aware" },
			wantErr: true,
		},
		{
			name: "supply-aware with endpoint",
			mutate: func(c *Config) {
				c.Pipeline.ReservePolicy = "supply-aware"
				c.Pipeline.SupplyEndpoint = "http://ledger.example.com/supply"
			},
		},
		{name: "zero pool size", mutate: func(c *Config) { c.Workers.PoolSize = 0 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddrs(t *testing.T) {
	cfg := &Config{HTTPPort: 8080, GRPCPort: 9090}
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}
