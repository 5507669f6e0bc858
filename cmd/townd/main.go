package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"townhall/internal/core/services"
	httphandlers "townhall/internal/handlers/http"
	"townhall/internal/infrastructure/middleware"
	"townhall/internal/infrastructure/monitoring"
	"townhall/internal/infrastructure/reliability"
	signalserver "townhall/internal/infrastructure/signal"
	"townhall/pkg/circuitbreaker"
	"townhall/pkg/config"
	"townhall/pkg/logger"
	"townhall/pkg/retry"
	"townhall/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/townhall/config.yaml",
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
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "townhall",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize video token provisioning
	videoService, err := services.NewVideoTokenService(cfg.Video.TokenSecret, cfg.Video.TokenTTL.Std())
	if err != nil {
		log.Fatalw("failed to create video token service", "error", err)
	}

	videoClient := reliability.NewVideoClientWrapper(
		videoService,
		retry.Config{
			Enabled:      cfg.Video.Retry.MaxAttempts > 0,
			MaxAttempts:  cfg.Video.Retry.MaxAttempts,
			InitialDelay: cfg.Video.Retry.InitialDelay.Std(),
			MaxDelay:     cfg.Video.Retry.MaxDelay.Std(),
			Multiplier:   2.0,
		},
		circuitBreakerConfig(cfg),
		log,
	)

	// Initialize the town directory
	registry := services.NewTownsRegistry(videoClient, services.RegistryOptions{
		MasterPassword:  cfg.Towns.MasterPassword,
		DefaultCanPlace: cfg.Towns.DefaultCanPlace,
	}, log)

	// Initialize monitoring
	prometheusCollector := monitoring.NewPrometheusCollector()
	healthChecker := monitoring.NewHealthChecker(registry)

	// Initialize WebSocket push channel
	wsServer := signalserver.NewWebSocketServer(registry, log)
	wsServer.SetPingInterval(cfg.Signal.PingInterval.Std())
	wsServer.SetPongTimeout(cfg.Signal.PongTimeout.Std())
	wsServer.SetWriteTimeout(cfg.Signal.WriteTimeout.Std())
	wsServer.SetOutboundQueueSize(cfg.Signal.OutboundQueueSize)
	wsServer.SetMetricsCollector(prometheusCollector)

	// Initialize HTTP handlers
	townHandler := httphandlers.NewTownHandler(registry)
	townHandler.SetMetricsCollector(prometheusCollector)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLoggingMiddleware(logger.NewContextLogger(zapLogger)))
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	townHandler.SetupRoutes(router)

	// Push-channel subscription endpoint
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	// Operational endpoints
	router.GET("/health", healthChecker.HandleHealth)
	router.GET("/ready", healthChecker.HandleReady)

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting townhall server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	healthChecker.SetReady(true)

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	healthChecker.SetReady(false)
	log.Info("Shutting down townhall server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
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

	// Flush tracing spans
	tracingCtx, tracingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer tracingCancel()
	if err := tracerProvider.Shutdown(tracingCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("townhall server stopped")
}

func circuitBreakerConfig(cfg *config.Config) circuitbreaker.Config {
	cbCfg := circuitbreaker.DefaultConfig()
	if cfg.Video.CircuitBreaker.FailureThreshold > 0 {
		cbCfg.FailureThreshold = cfg.Video.CircuitBreaker.FailureThreshold
	}
	if cfg.Video.CircuitBreaker.SuccessThreshold > 0 {
		cbCfg.SuccessThreshold = cfg.Video.CircuitBreaker.SuccessThreshold
	}
	if cfg.Video.CircuitBreaker.Timeout > 0 {
		cbCfg.Timeout = cfg.Video.CircuitBreaker.Timeout.Std()
	}
	return cbCfg
}
