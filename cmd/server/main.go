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

	"reelsync/internal/core/services"
	httphandlers "reelsync/internal/handlers/http"
	"reelsync/internal/infrastructure/distributed"
	"reelsync/internal/infrastructure/middleware"
	"reelsync/internal/infrastructure/monitoring"
	redisrepo "reelsync/internal/infrastructure/repositories/redis"
	signalws "reelsync/internal/infrastructure/signal"
	"reelsync/pkg/config"
	"reelsync/pkg/logger"
	"reelsync/pkg/retry"
	"reelsync/pkg/tracing"
	"reelsync/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := os.Getenv("REELSYNC_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		sugar.Fatalw("failed to init tracing", "error", err)
	}

	redisClient, err := redisrepo.NewClient(
		cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, sugar,
	)
	if err != nil {
		sugar.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	roomRepo := redisrepo.NewRoomRepository(redisClient)
	msgRepo := redisrepo.NewMessageRepository(redisClient)

	collector := monitoring.NewPrometheusCollector()
	registry := signalws.NewRegistry(sugar)

	instanceID := utils.GenerateInstanceID()
	sugar.Infow("starting instance", "instance_id", instanceID)

	busRetry := retry.Config{
		MaxAttempts:  cfg.Bus.RetryAttempts,
		InitialDelay: cfg.Bus.RetryDelay,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
	bus := distributed.NewEventBus(
		redisClient, cfg.Bus.Channel, instanceID, registry, collector, busRetry, sugar,
	)

	busCtx, stopBus := context.WithCancel(context.Background())
	go func() {
		if err := bus.Subscribe(busCtx); err != nil && !errors.Is(err, context.Canceled) {
			sugar.Errorw("bus subscription ended", "error", err)
		}
	}()

	gate := services.NewCooldownGate(map[string]time.Duration{
		services.ActionBeep:   cfg.Cooldown.Beep,
		services.ActionScream: cfg.Cooldown.Scream,
	})
	roomService := services.NewRoomService(roomRepo, msgRepo, bus, gate, sugar)
	authService := services.NewAuthService(cfg.Auth.JWTSecret)
	resyncService := services.NewResyncService(roomRepo, msgRepo)

	wsServer := signalws.NewWebSocketServer(roomService, authService, registry, collector, signalws.Options{
		PingInterval:    cfg.Signal.PingInterval,
		PongTimeout:     cfg.Signal.PongTimeout,
		WriteTimeout:    cfg.Signal.WriteTimeout,
		MaxMessageBytes: cfg.Signal.MaxMessageBytes,
		MessagesPerSec:  cfg.RateLimiting.WebSocket.MessagesPerSecond,
		MessageBurst:    cfg.RateLimiting.WebSocket.Burst,
	}, sugar)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(sugar))
	router.Use(middleware.ErrorHandlerMiddleware(sugar))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))
	router.GET("/health", monitoring.HealthHandler(redisClient))
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	roomHandler := httphandlers.NewRoomHandler(
		resyncService, roomService, msgRepo,
		cfg.Resync.DefaultMessageLimit, cfg.Resync.MaxMessageLimit,
	)
	roomHandler.SetupRoutes(router, middleware.AuthMiddleware(authService))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sugar.Infow("server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server shutdown failed", "error", err)
	}
	stopBus()
	if err := bus.Close(); err != nil {
		sugar.Warnw("bus close failed", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("tracer shutdown failed", "error", err)
	}
}
