package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/etherscan-client/pkg/client"
	"github.com/Sternrassler/etherscan-client/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// config is the service configuration, read from the environment.
type config struct {
	APIKey      string
	BaseURL     string
	RedisURL    string
	Port        string
	ThreadCount int
	MaxThreads  int
	RateLimit   int
	MaxRetries  int
	LogLevel    logging.LogLevel
	LogPretty   bool
}

// loadDotEnv loads .env into the environment when present. Variables already
// set take precedence.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Msg("error loading .env file")
	}
}

func loadConfig() (config, error) {
	cfg := config{
		APIKey:   os.Getenv("ETHERSCAN_API_KEY"),
		BaseURL:  getEnv("BASE_URL", client.DefaultBaseURL),
		RedisURL: os.Getenv("REDIS_URL"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: logging.LogLevel(getEnv("LOG_LEVEL", string(logging.LevelInfo))),
	}
	if cfg.APIKey == "" {
		return config{}, fmt.Errorf("ETHERSCAN_API_KEY is required")
	}
	if _, err := logging.ParseLevel(string(cfg.LogLevel)); err != nil {
		return config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	var err error
	if cfg.ThreadCount, err = getEnvInt("THREAD_COUNT", 4); err != nil {
		return config{}, err
	}
	if cfg.MaxThreads, err = getEnvInt("MAX_THREADS", client.DefaultMaxThreads); err != nil {
		return config{}, err
	}
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 5); err != nil {
		return config{}, err
	}
	if cfg.MaxRetries, err = getEnvInt("MAX_RETRIES", 2); err != nil {
		return config{}, err
	}
	cfg.LogPretty, _ = strconv.ParseBool(os.Getenv("LOG_PRETTY"))

	return cfg, nil
}

// clientConfig maps the service configuration onto the explorer client.
func (c config) clientConfig(redisClient *redis.Client) client.Config {
	cc := client.DefaultConfig(c.APIKey)
	cc.BaseURL = c.BaseURL
	cc.UserAgent = "scan-proxy/0.1.0"
	cc.ThreadCount = c.ThreadCount
	cc.MaxThreads = c.MaxThreads
	cc.RateLimit = c.RateLimit
	cc.MaxRetries = c.MaxRetries
	cc.Redis = redisClient
	cc.Timeout = 30 * time.Second
	return cc
}

// newRedis returns nil when no REDIS_URL is configured. Both redis:// URLs
// and bare host:port addresses are accepted.
func newRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return redis.NewClient(opts)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
