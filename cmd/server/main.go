package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/promptly/client/internal/audit"
	"github.com/promptly/client/internal/config"
	"github.com/promptly/client/internal/database"
	"github.com/promptly/client/internal/eventbus"
	"github.com/promptly/client/internal/metrics"
	"github.com/promptly/client/internal/orchestrator"
	"github.com/promptly/client/internal/remote"
	"github.com/promptly/client/internal/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// @title Promptly API
// @version 0.1.0
// @description Submission state machine in front of the Promptly generation service.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("promptly server starting...",
		zap.String("environment", cfg.Environment),
		zap.String("ai_service_url", cfg.AIServiceURL),
		zap.Duration("ai_service_timeout", cfg.AIServiceTimeout),
	)

	shutdownTelemetry, err := telemetry.InitTracer(ctx, "promptly", cfg.OTLPEndpoint)
	if err != nil {
		// Collector might be down; tracing is optional
		logger.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	client, err := remote.NewClient(cfg.Remote(), remote.WithLogger(logger.Named("remote")))
	if err != nil {
		logger.Fatal("invalid generation service configuration", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []orchestrator.Option{orchestrator.WithListener(m.Observe)}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		metrics:  m,
		gatherer: reg,
	}

	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
		}
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL, logger.Named("database"))
		if err != nil {
			logger.Error("failed to connect to database, audit log disabled", zap.Error(err))
		} else {
			defer db.Close()
			a.db = db
			a.attempts = audit.NewPostgresStore(db.Pool())
			recorder := audit.NewRecorder(a.attempts, logger.Named("audit"))
			opts = append(opts, orchestrator.WithListener(recorder.Observe))
		}
	}

	if cfg.RedisURL != "" {
		rdb, err := database.NewRedis(ctx, cfg.RedisURL, logger.Named("redis"))
		if err != nil {
			logger.Error("failed to connect to redis, using in-process rate limiter", zap.Error(err))
		} else {
			defer rdb.Close()
			a.redis = rdb
		}
	}

	if cfg.NATSURL != "" {
		bus, err := eventbus.Connect(cfg.NATSURL, logger.Named("eventbus"))
		if err != nil {
			logger.Error("failed to connect to NATS", zap.Error(err))
		} else {
			defer bus.Close()
			opts = append(opts, orchestrator.WithListener(bus.Publish))
			logger.Info("connected to NATS")
		}
	}

	baseCtx, cancelCalls := context.WithCancel(ctx)
	defer cancelCalls()
	opts = append(opts, orchestrator.WithBaseContext(baseCtx))

	a.orch = orchestrator.New(client, logger.Named("orchestrator"), opts...)
	defer a.orch.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := a.router()

	// No WriteTimeout: the state stream and the wait endpoint hold responses open
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Closing the orchestrator ends open state streams
	a.orch.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}
	return zapConfig.Build()
}
