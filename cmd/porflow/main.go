package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/porflow/porflow/internal/application/pipeline"
	"github.com/porflow/porflow/internal/application/workers"
	"github.com/porflow/porflow/internal/config"
	"github.com/porflow/porflow/internal/ports"
	"github.com/porflow/porflow/pkg/adapters/chain"
	eventsmemory "github.com/porflow/porflow/pkg/adapters/events/memory"
	eventsredis "github.com/porflow/porflow/pkg/adapters/events/redis"
	"github.com/porflow/porflow/pkg/adapters/metrics/prometheus"
	"github.com/porflow/porflow/pkg/adapters/reserve"
	storagememory "github.com/porflow/porflow/pkg/adapters/storage/memory"
	storageredis "github.com/porflow/porflow/pkg/adapters/storage/redis"
	"github.com/porflow/porflow/pkg/api/grpc"
	"github.com/porflow/porflow/pkg/api/http"
	"github.com/porflow/porflow/pkg/api/websocket"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting porflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Load token/chain registry
	registry, err := config.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		logger.Fatal("failed to load registry", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize storage and event bus. An empty Redis address selects the
	// in-memory adapters (demo mode).
	var (
		eventBus    ports.EventBus
		store       ports.OutcomeStore
		redisClient *goredis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		eventBus, err = eventsredis.NewStreamsEventBus(
			redisClient,
			"porflow-workers",
			fmt.Sprintf("porflow-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}

		store = storageredis.NewOutcomeStore(redisClient, cfg.Timeouts.StateRetention, logger)
	} else {
		logger.Warn("no Redis address configured, using in-memory adapters")
		eventBus = eventsmemory.NewInMemoryEventBus()
		store = storagememory.NewOutcomeStore()
	}

	// Initialize reserve source
	var reserveSource ports.ReserveSource
	switch cfg.Reserve.Mode {
	case "http":
		reserveSource = reserve.NewHTTPSource(cfg.Reserve.Endpoint, cfg.Reserve.Timeout, logger)
	default:
		reserveSource, err = reserve.NewStaticSource(cfg.Reserve.StaticValue)
		if err != nil {
			logger.Fatal("failed to create reserve source", zap.Error(err))
		}
	}

	// Initialize report submitter
	var submitter ports.ReportSubmitter
	if cfg.Forwarder.Endpoint != "" {
		submitter = chain.NewForwarderClient(cfg.Forwarder.Endpoint, cfg.Forwarder.Timeout, logger)
	} else {
		logger.Warn("no forwarder endpoint configured, using local auto-confirming submitter")
		submitter = chain.NewLocalSubmitter()
	}

	// Initialize supply reader for the supply-aware reserve policy
	var supplyReader ports.SupplyReader
	if cfg.Pipeline.ReservePolicy == string(pipeline.ReservePolicySupplyAware) {
		supplyReader = chain.NewSupplyClient(cfg.Pipeline.SupplyEndpoint, cfg.Reserve.Timeout)
	}

	metricsCollector := prometheus.NewCollector()

	// Initialize the pipeline
	validator, err := pipeline.NewReserveValidator(
		pipeline.ReservePolicy(cfg.Pipeline.ReservePolicy),
		supplyReader,
		cfg.Pipeline.Decimals,
	)
	if err != nil {
		logger.Fatal("failed to create reserve validator", zap.Error(err))
	}

	mintStage := pipeline.NewMintStage(
		submitter,
		cfg.Forwarder.RejectionSignal,
		cfg.Timeouts.StageTimeout,
		metricsCollector,
		logger,
	)
	transferStage := pipeline.NewTransferStage(
		submitter,
		cfg.Forwarder.RejectionSignal,
		cfg.Timeouts.StageTimeout,
		metricsCollector,
		logger,
	)

	runner := pipeline.NewRunner(
		reserveSource,
		validator,
		mintStage,
		transferStage,
		eventBus,
		metricsCollector,
		logger,
		cfg.Pipeline.CustodyAccount,
		cfg.Pipeline.Decimals,
	)

	manager := pipeline.NewManager(
		store,
		eventBus,
		metricsCollector,
		runner,
		logger,
		cfg.Timeouts.WorkflowTimeout,
	)

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		eventBus,
		manager,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)

	// Start worker pool
	if err := workerPool.Start(); err != nil {
		logger.Fatal("failed to start worker pool", zap.Error(err))
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:     cfg.HTTPPort,
		APIKey:   cfg.APIKey,
		Manager:  manager,
		Registry: registry,
		Logger:   logger,
	})

	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("porflow started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.String("reserve_mode", cfg.Reserve.Mode),
		zap.String("reserve_policy", cfg.Pipeline.ReservePolicy))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("porflow shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
