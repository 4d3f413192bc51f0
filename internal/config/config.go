package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the PoR workflow orchestrator.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"PORFLOW_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"PORFLOW_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// API key required on the v1 API surface. Empty disables the check
	// (local development only).
	APIKey string `env:"PORFLOW_API_KEY"`

	// Optional YAML token/chain registry file
	RegistryFile string `env:"PORFLOW_REGISTRY_FILE"`

	// Redis configuration. An empty address selects the in-memory
	// adapters (demo mode).
	Redis RedisConfig

	// Reserve source configuration
	Reserve ReserveConfig

	// Signed-report forwarder configuration
	Forwarder ForwarderConfig

	// Pipeline configuration
	Pipeline PipelineConfig

	// Worker configuration
	Workers WorkerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// ReserveConfig selects and configures the proof-of-reserve source.
type ReserveConfig struct {
	// Mode is "http" for a live reserve endpoint or "static" for a fixed
	// demo value.
	Mode        string        `env:"RESERVE_MODE" envDefault:"static"`
	Endpoint    string        `env:"RESERVE_ENDPOINT"`
	StaticValue string        `env:"RESERVE_STATIC_VALUE" envDefault:"500000"`
	Timeout     time.Duration `env:"RESERVE_TIMEOUT" envDefault:"10s"`
}

// ForwarderConfig configures the signed-report submission capability. An
// empty endpoint selects the local auto-confirming submitter (demo mode).
type ForwarderConfig struct {
	Endpoint string        `env:"FORWARDER_ENDPOINT"`
	Timeout  time.Duration `env:"FORWARDER_TIMEOUT" envDefault:"30s"`

	// RejectionSignal is matched against receipt messages when the
	// capability returns no structured code.
	RejectionSignal string `env:"FORWARDER_REJECTION_SIGNAL" envDefault:"policy"`
}

// PipelineConfig holds the workflow pipeline settings.
type PipelineConfig struct {
	// Decimals is the fixed-point scale applied to all on-wire amounts.
	Decimals int32 `env:"PIPELINE_DECIMALS" envDefault:"18"`

	// CustodyAccount is the intermediate holder of minted value when a
	// cross-chain leg follows.
	CustodyAccount string `env:"PIPELINE_CUSTODY_ACCOUNT" envDefault:"custody-pool"`

	// ReservePolicy is "simple" (reserves must cover the requested mint)
	// or "supply-aware" (reserves must cover issued supply plus the
	// requested mint).
	ReservePolicy string `env:"PIPELINE_RESERVE_POLICY" envDefault:"simple"`

	// SupplyEndpoint is the ledger endpoint reporting issued supply.
	// Required by the supply-aware reserve policy.
	SupplyEndpoint string `env:"PIPELINE_SUPPLY_ENDPOINT"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations.
type TimeoutConfig struct {
	WorkflowTimeout time.Duration `env:"TIMEOUT_WORKFLOW" envDefault:"120s"`
	StageTimeout    time.Duration `env:"TIMEOUT_STAGE" envDefault:"45s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	StateRetention  time.Duration `env:"TIMEOUT_STATE_RETENTION" envDefault:"24h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	switch c.Reserve.Mode {
	case "static":
		if c.Reserve.StaticValue == "" {
			return fmt.Errorf("static reserve value is required in static mode")
		}
	case "http":
		if c.Reserve.Endpoint == "" {
			return fmt.Errorf("reserve endpoint is required in http mode")
		}
	default:
		return fmt.Errorf("invalid reserve mode: %s (must be static or http)", c.Reserve.Mode)
	}

	if c.Pipeline.Decimals < 0 || c.Pipeline.Decimals > 30 {
		return fmt.Errorf("invalid decimal scale: %d", c.Pipeline.Decimals)
	}
	if c.Pipeline.CustodyAccount == "" {
		return fmt.Errorf("custody account is required")
	}
	if c.Pipeline.ReservePolicy != "simple" && c.Pipeline.ReservePolicy != "supply-aware" {
		return fmt.Errorf("invalid reserve policy: %s (must be simple or supply-aware)", c.Pipeline.ReservePolicy)
	}
	if c.Pipeline.ReservePolicy == "supply-aware" && c.Pipeline.SupplyEndpoint == "" {
		return fmt.Errorf("supply endpoint is required for the supply-aware reserve policy")
	}

	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
