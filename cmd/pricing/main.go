package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/internal/pricing"
	"github.com/richxcame/fare-engine/pkg/cache"
	"github.com/richxcame/fare-engine/pkg/common"
	"github.com/richxcame/fare-engine/pkg/config"
	"github.com/richxcame/fare-engine/pkg/database"
	"github.com/richxcame/fare-engine/pkg/errors"
	"github.com/richxcame/fare-engine/pkg/eventbus"
	"github.com/richxcame/fare-engine/pkg/health"
	"github.com/richxcame/fare-engine/pkg/logger"
	"github.com/richxcame/fare-engine/pkg/middleware"
	redisclient "github.com/richxcame/fare-engine/pkg/redis"
	"github.com/richxcame/fare-engine/pkg/resilience"
	"github.com/richxcame/fare-engine/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName = "pricing-service"
	breakerName = "pricing-config-store"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	version := cfg.Server.Version

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	if err := logger.Init(cfg.Server.Environment, serviceName); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting pricing service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Initialize Sentry for error tracking
	sentryConfig := errors.NewSentryConfig(cfg.Sentry.DSN, cfg.Server.Environment, serviceName, version, cfg.Sentry.TracesSampleRate)
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	tracerEnabled := false
	tp, err := tracing.InitTracer(tracing.ConfigFrom(cfg), logger.Get())
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		tracerEnabled = true
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracing.Shutdown(shutdownCtx, tp, logger.Get())
		}()
		logger.Info("OpenTelemetry tracing initialized successfully")
	}

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(cfg.Database.URL()); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	db, err := database.NewPostgresPool(&cfg.Database, cfg.Timeout.DatabaseQueryTimeout)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to database")

	var (
		redisClient  *redisclient.Client
		cacheManager *cache.Manager
		storeBreaker *resilience.CircuitBreaker
		bus          *eventbus.Bus
	)

	if cfg.Cache.Enabled {
		redisClient, err = redisclient.NewRedisClient(&cfg.Redis, cfg.Timeout.RedisOperationTimeoutDuration())
		if err != nil {
			logger.Fatal("Failed to initialize redis for config caching", zap.Error(err))
		}
		cacheManager = cache.NewManager(redisClient)
		logger.Info("Pricing config cache enabled",
			zap.Duration("ttl", cfg.Cache.ConfigTTL()),
			zap.Duration("refresh_interval", cfg.Cache.RefreshInterval()),
		)

		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}()
	}

	if cfg.Resilience.CircuitBreaker.Enabled {
		breakerCfg := cfg.Resilience.CircuitBreaker.SettingsFor(breakerName)
		storeBreaker = resilience.NewCircuitBreaker(
			pricing.StoreBreakerSettings(resilience.BuildSettings(breakerName, breakerCfg)),
			nil,
		)

		logger.Info("Circuit breaker configured for pricing config store",
			zap.Int("failure_threshold", breakerCfg.FailureThreshold),
			zap.Int("success_threshold", breakerCfg.SuccessThreshold),
			zap.Int("timeout_seconds", breakerCfg.TimeoutSeconds),
			zap.Int("interval_seconds", breakerCfg.IntervalSeconds),
		)
	}

	repo := pricing.NewRepository(db)
	loader := pricing.NewLoader(repo, cacheManager, cfg.Cache.ConfigTTL(), storeBreaker)
	snapshot := pricing.NewSnapshot(loader)
	service := pricing.NewService(repo, loader, snapshot)

	if err := bootstrap(rootCtx, service); err != nil {
		if !stderrors.Is(err, fare.ErrConfigurationMissing) {
			logger.Fatal("Failed to load pricing configuration", zap.Error(err))
		}
		logger.Warn("No active pricing configuration, estimates will fail until one is activated")
	}
	go snapshot.Run(rootCtx, cfg.Cache.RefreshInterval())

	if cfg.NATS.Enabled {
		bus, err = eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.StreamName,
		})
		if err != nil {
			logger.Warn("Failed to connect to NATS, pricing events disabled", zap.Error(err))
		} else {
			defer bus.Close()
			service.SetEventBus(bus)

			// Each replica needs its own consumer to see every config change
			consumer := "pricing-snapshot-" + replicaName()
			if err := bus.Subscribe(rootCtx, "pricing.config.>", consumer, snapshot.HandleConfigEvent); err != nil {
				logger.Warn("Failed to subscribe to pricing config events", zap.Error(err))
			}
			logger.Info("Pricing events enabled", zap.String("consumer", consumer))
		}
	}

	handler := pricing.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry()) // Custom recovery with Sentry
	router.Use(middleware.SentryMiddleware())   // Sentry integration
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(&cfg.Timeout))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOriginList()))
	router.Use(middleware.Metrics(serviceName))

	if tracerEnabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}

	// Sentry error handler stays near the end of the chain
	router.Use(middleware.ErrorHandler())

	// Health check endpoints
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))

	// Readiness probe with dependency checks
	healthChecks := map[string]func() error{
		"database": health.PingChecker("database", db),
		"pricing_config": health.ConditionChecker("no active pricing configuration loaded", func() bool {
			return snapshot.Load() != nil
		}),
	}
	if redisClient != nil {
		healthChecks["redis"] = health.PingChecker("redis", redisClient)
	}
	if storeBreaker != nil {
		healthChecks["config_store_breaker"] = health.BreakerChecker(storeBreaker)
	}
	if bus != nil {
		healthChecks["nats"] = health.ConditionChecker("nats disconnected", bus.Connected)
	}

	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AdminAPIKey(cfg.Server.AdminAPIKey))
	handler.RegisterAdminRoutes(admin)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// bootstrap seeds and loads the active configuration, retrying while the
// database is still coming up
func bootstrap(ctx context.Context, service *pricing.Service) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)

	return backoff.RetryNotify(func() error {
		err := service.Bootstrap(ctx, "bootstrap")
		if stderrors.Is(err, fare.ErrConfigurationMissing) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Pricing bootstrap failed, retrying", zap.Error(err), zap.Duration("backoff", wait))
	})
}

func replicaName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "local"
	}
	return name
}
