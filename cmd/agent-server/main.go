// cmd/agent-server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"weather-agent/internal/agent"
	"weather-agent/internal/calendar"
	"weather-agent/internal/common/config"
	"weather-agent/internal/common/database"
	"weather-agent/internal/common/logger"
	"weather-agent/internal/common/observability"
	"weather-agent/internal/llm"
	"weather-agent/internal/server"
	"weather-agent/internal/weather"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(operationName+" failed, retrying...",
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting weather agent...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis (geocoding cache) with retry ---
	// The cache is optional: without Redis every lookup goes straight
	// to the geocoding API.
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 3, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Warn("redis unavailable, geocoding cache disabled", zap.Error(err))
		redis = nil
	} else {
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Service Clients ---
	llmClient := llm.NewClient(cfg, log)
	if !llmClient.Configured() {
		zapLog.Warn("OpenAI key not configured, running with keyword fallback only")
	}

	weatherClient := weather.NewClient(cfg, redis, log)
	if !weatherClient.Configured() {
		zapLog.Warn("OpenWeather key not configured, weather lookups will fail")
	}

	agentService := agent.NewService(llmClient, weatherClient, obs, log)
	calendarService := calendar.NewService(cfg, log)

	// --- HTTP Server ---
	handler := server.NewHandler(agentService, weatherClient, calendarService, llmClient, cfg, log)
	srv := server.New(cfg, handler, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down http server", zap.Error(err))
	}

	zapLog.Info("Weather agent stopped gracefully")
}
