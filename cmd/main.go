package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/config"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/logging"
	"github.com/mansoorceksport/workout-assistant/internal/repository"
	"github.com/mansoorceksport/workout-assistant/internal/server"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/mansoorceksport/workout-assistant/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logging.Setup(cfg.Log)
	logrus.Info("starting Workout Assistant service")

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, cfg.OTEL)
	if err != nil {
		logrus.WithError(err).Warn("failed to initialize OpenTelemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelProvider.Shutdown(shutdownCtx)
	}()

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		logrus.WithField("addr", cfg.Redis.Addr).Info("redis connected")
	}

	store, closeStore, err := repository.OpenStore(ctx, cfg, redisClient)
	if err != nil {
		logrus.Fatalf("failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()

	var assistant domain.AssistantClient
	if cfg.Assistant.Enabled {
		assistant = service.NewOpenRouterAssistant(
			cfg.Assistant.BaseURL,
			cfg.Assistant.APIKey,
			cfg.Assistant.Model,
			cfg.Assistant.SystemPrompt,
			cfg.Assistant.Timeout,
		)
	} else {
		logrus.Warn("assistant disabled, chat replies will use the fallback text")
	}

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		Store:       store,
		RedisClient: redisClient,
		Assistant:   assistant,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logrus.Info("shutting down gracefully")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("shutdown failed")
		}
	}()

	logrus.WithField("port", cfg.Server.Port).Info("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logrus.Fatalf("failed to start server: %v", err)
	}
}
