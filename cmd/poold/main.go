package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"streampool/internal/core/ports"
	"streampool/internal/core/services"
	httphandlers "streampool/internal/handlers/http"
	"streampool/internal/infrastructure/diagnostics"
	"streampool/internal/infrastructure/ingest"
	"streampool/internal/infrastructure/middleware"
	"streampool/internal/infrastructure/monitoring"
	"streampool/internal/infrastructure/watch"
	"streampool/pkg/circuitbreaker"
	"streampool/pkg/config"
	"streampool/pkg/logger"
	"streampool/pkg/tracing"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/streampool/config.yaml",
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
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(ctx)
	}()

	// Diagnostics sink
	var sink ports.DiagnosticsSink = diagnostics.NopSink{}
	if cfg.Diagnostics.Enabled {
		redisSink, err := diagnostics.NewRedisSink(diagnostics.Config{
			Address:  cfg.Diagnostics.Address,
			Password: cfg.Diagnostics.Password,
			DB:       cfg.Diagnostics.DB,
			Key:      cfg.Diagnostics.Key,
			MaxLines: cfg.Diagnostics.MaxLines,
		}, log)
		if err != nil {
			log.Fatalw("failed to connect diagnostics sink", "error", err)
		}
		defer redisSink.Close()
		sink = redisSink
	}

	// Ingest API client
	opts := ingest.Options{
		BaseURL:    cfg.API.BaseURL,
		APIVersion: cfg.API.APIVersion,
		AccessKey:  cfg.API.AccessKey,
		RESTKey:    cfg.API.RESTKey,
		HMACAuth:   cfg.API.HMACAuth,
		Timeout:    cfg.API.Timeout,
	}
	if cfg.API.RateLimit.Enabled {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimit.RequestsPerSecond), cfg.API.RateLimit.Burst)
	}
	if cfg.API.CircuitBreaker.Enabled {
		breaker := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.API.CircuitBreaker.FailureThreshold,
			SuccessThreshold: cfg.API.CircuitBreaker.SuccessThreshold,
			OpenTimeout:      cfg.API.CircuitBreaker.OpenTimeout,
		})
		breaker.OnStateChange(func(from, to circuitbreaker.State) {
			log.Warnw("ingest circuit breaker state changed", "from", from.String(), "to", to.String())
		})
		opts.Breaker = breaker
	}
	client := ingest.NewClient(opts, sink, log)

	// Monitoring
	collector := monitoring.NewPrometheusCollector()
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddIngestCheck(client, 5*time.Second)

	// Core services
	lifecycle := services.NewLifecycleService(client, services.LifecycleConfig{
		DefaultStartTimeout: cfg.Lifecycle.StartTimeout,
		StopTimeout:         cfg.Lifecycle.StopTimeout,
		PollInterval:        cfg.Lifecycle.PollInterval,
	}, log, collector)
	pool := services.NewPoolService(client, services.PoolConfig{
		StartingSize:     cfg.Pool.StartingSize,
		ThresholdPercent: cfg.Pool.ThresholdPercent,
	}, log, collector)

	watcher := watch.NewStateWatcher(client, cfg.Lifecycle.PollInterval, log)

	// HTTP surface
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	router.Use(middleware.ErrorHandlerMiddleware(log))

	api := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		api.Use(middleware.AuthMiddleware(authService))
	}

	streamHandler := httphandlers.NewStreamHandler(client, lifecycle, pool, watcher)
	streamHandler.SetupRoutes(api)

	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting streampool daemon on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down streampool daemon...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}
}
