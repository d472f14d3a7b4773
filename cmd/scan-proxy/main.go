// Command scan-proxy serves the explorer client's operations over HTTP as JSON.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/etherscan-client/pkg/client"
	"github.com/Sternrassler/etherscan-client/pkg/logging"
)

func main() {
	loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		logger := logging.NewLogger(logging.ComponentProxy)
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Output:  os.Stderr,
		Service: logging.ComponentProxy,
	})
	logger := logging.NewLogger(logging.ComponentProxy)

	redisClient := newRedis(cfg.RedisURL)
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.Info().Msg("Connected to Redis, response cache enabled")
	}

	scanClient, err := client.New(cfg.clientConfig(redisClient))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create explorer client")
	}
	defer scanClient.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(scanClient),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("base_url", cfg.BaseURL).
			Int("threads", cfg.ThreadCount).
			Int("rate_limit", cfg.RateLimit).
			Msg("Starting scan proxy")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
