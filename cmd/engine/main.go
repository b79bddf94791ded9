package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/internal/core/services"
	httphandlers "telequal/internal/handlers/http"
	"telequal/internal/infrastructure/middleware"
	"telequal/internal/infrastructure/monitoring"
	"telequal/internal/infrastructure/notification"
	"telequal/internal/infrastructure/reliability"
	repositories "telequal/internal/infrastructure/repositories"
	"telequal/internal/infrastructure/telemetry"
	"telequal/pkg/circuitbreaker"
	"telequal/pkg/config"
	"telequal/pkg/logger"
	"telequal/pkg/tracing"
	"telequal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/telequal/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "telequal-engine",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	sampleRepo := repoFactory.CreateSampleRepository()
	reportRepo := repoFactory.CreateReportRepository()
	alertRepo := repoFactory.CreateAlertRepository()

	// Initialize core services
	thresholdStore := services.NewThresholdStore(cfg.Thresholds)
	scorer := services.NewScoringService()
	aggregator := services.NewSessionAggregator(scorer, thresholdStore, sampleRepo, cfg.Persistence.QueryTimeout, log)

	// Notification channel: Redis pub/sub when available, log otherwise.
	// Either way the channel sits behind a circuit breaker so a failing
	// consumer cannot stall the dispatch worker.
	var notifier ports.NotificationService = notification.NewLogNotifier(log)
	if client := repoFactory.RedisClient(); client != nil {
		notifier = notification.NewRedisNotifier(client, utils.GenerateID(), log)
	}
	channel := reliability.NewNotifierBreaker(notifier, circuitbreaker.DefaultConfig(), log)

	alertDispatcher := services.NewAlertDispatcher(services.AlertDispatcherConfig{
		CriticalBelow: cfg.Alerts.CriticalBelow,
		WarningBelow:  cfg.Alerts.WarningBelow,
		Cooldown:      cfg.Alerts.Cooldown,
		QueueDepth:    cfg.Alerts.QueueDepth,
		NotifyTimeout: cfg.Alerts.NotifyTimeout,
	}, channel, alertRepo, log)

	initialTier, ok := domain.ParseProfileTier(cfg.Selector.InitialProfile)
	if !ok {
		log.Warnw("unknown initial profile, using medium", "value", cfg.Selector.InitialProfile)
	}
	profileSelector := services.NewProfileSelector(services.ProfileSelectorConfig{
		ConsecutivePoorToDowngrade: cfg.Selector.ConsecutivePoorToDowngrade,
		ConsecutiveGoodToUpgrade:   cfg.Selector.ConsecutiveGoodToUpgrade,
		SwitchCooldown:             cfg.Selector.SwitchCooldown,
		InitialTier:                initialTier,
	}, log)

	aggregator.AttachConsumers(alertDispatcher, profileSelector)

	reporting := services.NewReportingFacade(reportRepo, aggregator, cfg.Persistence.QueryTimeout, cfg.Persistence.ReportCacheTTL, log)

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()
	aggregator.AttachMetrics(collector)
	alertDispatcher.AttachMetrics(collector)
	profileSelector.AttachMetrics(collector)
	reporting.AttachMetrics(collector)

	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddSampleStoreCheck(sampleRepo, 30*time.Second, 2*time.Second)
	healthChecker.AddAlertQueueCheck(alertDispatcher, cfg.Alerts.QueueDepth, 15*time.Second, time.Second)
	if client := repoFactory.RedisClient(); client != nil {
		healthChecker.AddRedisCheck(client, 30*time.Second, 2*time.Second)
	}

	// Initialize HTTP handlers
	telemetryHandler := httphandlers.NewTelemetryHandler(aggregator, profileSelector, reporting, thresholdStore)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestLoggerMiddleware(zapLogger))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.MetricsMiddleware(collector))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	telemetryHandler.SetupRoutes(router)

	// Telemetry source: live websocket feeds or the built-in simulator.
	sourceCtx, stopSource := context.WithCancel(context.Background())
	defer stopSource()

	var source ports.TelemetrySource
	if cfg.Telemetry.Source == "simulated" {
		source = telemetry.NewSimulatedSource(aggregator, cfg.Telemetry.SimulatedRooms, cfg.Telemetry.SampleInterval, log)
	} else {
		wsSource := telemetry.NewWebSocketSource(aggregator, cfg.Telemetry.PingInterval, cfg.Telemetry.PongTimeout, log)
		router.GET(cfg.Telemetry.WebSocketPath, gin.WrapF(wsSource.HandleWebSocket))
		source = wsSource
	}

	go func() {
		if err := source.Run(sourceCtx); err != nil && err != context.Canceled {
			log.Errorw("telemetry source stopped", "source", source.Name(), "error", err)
		}
	}()
	log.Infow("telemetry source started", "source", source.Name())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := 200
		if status.Status != "healthy" {
			code = 503
		}
		c.JSON(code, gin.H{
			"status":    status.Status,
			"timestamp": status.Timestamp,
			"checks":    status.Checks,
			"uptime":    time.Since(startTime).String(),
		})
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{
				"status":       "not_ready",
				"timestamp":    time.Now(),
				"dependencies": "unhealthy",
				"error":        err.Error(),
			})
			return
		}

		c.JSON(200, gin.H{
			"status":       "ready",
			"timestamp":    time.Now(),
			"dependencies": "ok",
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting telequal engine on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down telequal engine...")

	stopSource()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	// Drain pending notifications, stop the cache janitor, flush batches.
	alertDispatcher.Close()
	reporting.Close()

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}

	log.Info("telequal engine stopped")
}
