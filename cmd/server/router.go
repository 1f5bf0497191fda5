package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/promptly/client/internal/audit"
	"github.com/promptly/client/internal/config"
	"github.com/promptly/client/internal/database"
	"github.com/promptly/client/internal/handlers"
	"github.com/promptly/client/internal/metrics"
	"github.com/promptly/client/internal/middleware"
	"github.com/promptly/client/internal/orchestrator"
	"github.com/promptly/client/internal/remote"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/promptly/client/docs" // Swagger docs
)

// app holds the wired components; optional ones are nil when not configured
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *remote.Client
	orch     *orchestrator.Orchestrator
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	db       *database.Postgres
	redis    *database.Redis
	attempts audit.Store
}

func (a *app) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(a.logger))
	router.Use(middleware.CORS())

	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	deps := map[string]handlers.Pinger{"database": nil, "redis": nil}
	if a.db != nil {
		deps["database"] = a.db
	}
	if a.redis != nil {
		deps["redis"] = a.redis
	}
	healthHandler := handlers.NewHealthHandler(a.client, deps, a.metrics.ObserveHealth)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/deep", healthHandler.DeepHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler(a.gatherer)))

	// Waiting longer than the call timeout covers one queued submission
	submissionHandler := handlers.NewSubmissionHandler(a.orch, a.logger, 2*a.cfg.AIServiceTimeout+5*time.Second)
	providersHandler := handlers.NewProvidersHandler(a.client, a.logger)

	var limiter middleware.Limiter = middleware.NewRateLimiter(a.cfg.RateLimitPerMinute, a.cfg.RateLimitPerMinute, time.Minute)
	if a.redis != nil {
		limiter = middleware.NewRedisRateLimiter(a.redis.Client(), a.cfg.RateLimitPerMinute, time.Minute)
	}
	auth := middleware.NewAuthenticator(a.cfg.JWTSecret, a.logger)

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware())
	{
		submit := v1.Group("")
		if a.cfg.RateLimitPerMinute > 0 {
			submit.Use(middleware.RateLimitMiddleware(limiter, a.logger))
		}
		submit.POST("/submit", submissionHandler.Submit)

		v1.POST("/reset", submissionHandler.Reset)
		v1.GET("/state", submissionHandler.State)
		v1.GET("/state/stream", submissionHandler.Stream)
		v1.GET("/submissions/:id/wait", submissionHandler.Wait)
		v1.GET("/providers", providersHandler.Status)

		if a.attempts != nil {
			attemptsHandler := handlers.NewAttemptsHandler(a.attempts, a.logger)
			v1.GET("/attempts", attemptsHandler.List)
		}
	}

	return router
}
