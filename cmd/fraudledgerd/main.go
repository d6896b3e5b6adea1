package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentinelledger/sentinel/internal/application/usecase"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/infrastructure/config"
	kafkainfra "github.com/sentinelledger/sentinel/internal/infrastructure/kafka"
	"github.com/sentinelledger/sentinel/internal/infrastructure/memory"
	"github.com/sentinelledger/sentinel/internal/infrastructure/outbox"
	"github.com/sentinelledger/sentinel/internal/infrastructure/postgres"
	rediscache "github.com/sentinelledger/sentinel/internal/infrastructure/redis"
	grpcpresentation "github.com/sentinelledger/sentinel/internal/presentation/grpc"
	kafkapresentation "github.com/sentinelledger/sentinel/internal/presentation/kafka"
	"github.com/sentinelledger/sentinel/internal/presentation/rest"
	"github.com/sentinelledger/sentinel/pkg/auth"
	"github.com/sentinelledger/sentinel/pkg/events"
	pkgkafka "github.com/sentinelledger/sentinel/pkg/kafka"
	"github.com/sentinelledger/sentinel/pkg/observability"
	"github.com/sentinelledger/sentinel/pkg/oracle"
	pgutil "github.com/sentinelledger/sentinel/pkg/postgres"
)

const serviceName = "fraudledgerd"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// SIGHUP rotates the oracle authority; registered before startup so an
	// early reload is queued instead of terminating the process.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	// Load configuration.
	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, hup, logger); err != nil {
		logger.Error("fraudledgerd exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("fraudledgerd stopped")
}

func run(ctx context.Context, cfg config.Config, hup <-chan os.Signal, logger *slog.Logger) error {
	logger.Info("starting fraudledgerd",
		"version", version,
		"environment", cfg.Environment,
		"store", cfg.StoreDriver,
		"grpc_port", cfg.GRPC.Port,
		"http_port", cfg.HTTPPort,
	)

	// Telemetry.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer shutdownWithTimeout(shutdownTracer, logger, "tracer")
	}

	shutdownMetrics, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer shutdownWithTimeout(shutdownMetrics, logger, "metrics")

	// Storage.
	var (
		recordRepo port.RecordRepository
		outboxRepo events.OutboxRepository
		checks     = make(map[string]rest.Pinger)
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dbCfg := pgutil.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			SSLMode:  cfg.DB.SSLMode,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		}
		if err := pgutil.RunMigrations(dbCfg.DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgutil.NewPool(dbCtx, dbCfg)
		dbCancel()
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

		recordRepo = postgres.NewRecordRepository(pool)
		outboxRepo = postgres.NewOutboxRepository(pool)
		checks["database"] = pool
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; records are lost on restart")
		store := memory.NewStore()
		recordRepo = store
		outboxRepo = store
		checks["store"] = store
	}

	if cfg.Redis.Addr != "" {
		cache := rediscache.NewCachedRecordRepository(
			recordRepo,
			rediscache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
			logger,
		)
		defer cache.Close()
		recordRepo = cache
		checks["cache"] = cache
		logger.Info("record cache enabled", "addr", cfg.Redis.Addr)
	}

	// Oracle authority.
	oracleAddress, err := cfg.Oracle.ResolveOracleAddress()
	if err != nil {
		return err
	}
	authority, err := service.NewOracleAuthority(oracleAddress)
	if err != nil {
		return fmt.Errorf("oracle authority: %w", err)
	}
	if authority.Address() == "" {
		logger.Warn("no oracle configured; every submission will be rejected")
	} else {
		logger.Info("oracle authority loaded", "oracle", authority.Address())
	}

	// Auth.
	jwtService, err := newJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	// Use cases.
	clock := service.NewMonotonicClock(service.NewSystemClock())
	recordFraudScoreUC := usecase.NewRecordFraudScore(recordRepo, oracle.Verifier{}, authority, clock)
	getFraudRecordUC := usecase.NewGetFraudRecord(recordRepo)

	// gRPC server.
	grpcHandler := grpcpresentation.NewFraudLedgerHandler(recordFraudScoreUC, getFraudRecordUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:      cfg.GRPCAddress(),
		TLSCertFile:  cfg.GRPC.TLSCertFile,
		TLSKeyFile:   cfg.GRPC.TLSKeyFile,
		ClientCAFile: cfg.GRPC.TLSClientCAFile,
		Reflection:   cfg.GRPC.Reflection,
	}, jwtService, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	limiter := rest.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(rest.RouterConfig{
			Health:    rest.NewHealthHandler(checks, logger),
			Records:   rest.NewRecordHandler(getFraudRecordUC, logger),
			Limiter:   limiter,
			Validator: jwtService,
			Metrics:   metricsHandler,
			Logger:    logger,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Cleanup(gctx)
		return nil
	})
	g.Go(func() error {
		reloadOracleAuthority(gctx, hup, cfg.Oracle, authority, logger)
		return nil
	})

	// Kafka: outbox relay and submission feed.
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaCfg := pkgkafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			SASLEnabled:   cfg.Kafka.SASLEnabled,
			SASLMechanism: cfg.Kafka.SASLMechanism,
			SASLUsername:  cfg.Kafka.SASLUsername,
			SASLPassword:  cfg.Kafka.SASLPassword,
			TLS:           cfg.Kafka.TLS,
		}

		producer, err := pkgkafka.NewProducer(kafkaCfg)
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := outbox.NewRelay(
			outboxRepo,
			kafkainfra.NewPublisher(producer, cfg.Kafka.EventsTopic, logger),
			cfg.Outbox.PollInterval,
			cfg.Outbox.BatchSize,
			logger,
		)
		g.Go(func() error { return relay.Run(gctx) })

		submissions := kafkapresentation.NewSubmissionHandler(recordFraudScoreUC, logger)
		consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.SubmissionTopic, submissions.Handle, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		g.Go(func() error { return consumer.Start(gctx) })
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox relay and submission feed disabled")
	}

	logger.Info("fraudledgerd started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
	)

	// Graceful shutdown once a signal arrives or any component fails.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down fraudledgerd")

		grpcServer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	publicKey := cfg.JWTPublicKey
	if publicKey == "" && cfg.JWTPublicKeyFile != "" {
		data, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		publicKey = string(data)
	}
	return auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.JWTSecret,
		PublicKeyPEM: publicKey,
		Issuer:       cfg.Issuer,
	})
}

// reloadOracleAuthority re-reads the oracle configuration each time hup
// fires and rotates the authority. A bad file keeps the current oracle.
func reloadOracleAuthority(ctx context.Context, hup <-chan os.Signal, cfg config.OracleConfig, authority *service.OracleAuthority, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			address, err := cfg.ResolveOracleAddress()
			if err != nil {
				logger.Error("oracle authority reload failed", "error", err)
				continue
			}
			previous := authority.Address()
			if err := authority.Rotate(address); err != nil {
				logger.Error("oracle authority reload rejected", "error", err)
				continue
			}
			logger.Info("oracle authority rotated", "previous", previous, "current", authority.Address())
		}
	}
}

func shutdownWithTimeout(fn func(context.Context) error, logger *slog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("shutdown failed", "component", name, "error", err)
	}
}
