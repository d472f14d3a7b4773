package main

import (
	"testing"

	"github.com/Sternrassler/etherscan-client/pkg/client"
	"github.com/Sternrassler/etherscan-client/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ETHERSCAN_API_KEY", "key")
	for _, k := range []string{"BASE_URL", "REDIS_URL", "PORT", "THREAD_COUNT", "MAX_THREADS", "RATE_LIMIT", "MAX_RETRIES", "LOG_LEVEL", "LOG_PRETTY"} {
		t.Setenv(k, "")
	}

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4, cfg.ThreadCount)
	assert.Equal(t, client.DefaultMaxThreads, cfg.MaxThreads)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.LogPretty)

	cc := cfg.clientConfig(nil)
	assert.Equal(t, "key", cc.APIKey)
	assert.Equal(t, 4, cc.ThreadCount)
	assert.Equal(t, client.DefaultMaxThreads, cc.MaxThreads)
	assert.Nil(t, cc.Redis)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ETHERSCAN_API_KEY", "key")
	t.Setenv("THREAD_COUNT", "8")
	t.Setenv("RATE_LIMIT", "20")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ThreadCount)
	assert.Equal(t, 20, cfg.RateLimit)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("ETHERSCAN_API_KEY", "")
		_, err := loadConfig()
		assert.ErrorContains(t, err, "ETHERSCAN_API_KEY")
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("ETHERSCAN_API_KEY", "key")
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := loadConfig()
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})

	t.Run("bad thread count", func(t *testing.T) {
		t.Setenv("ETHERSCAN_API_KEY", "key")
		t.Setenv("THREAD_COUNT", "many")
		_, err := loadConfig()
		assert.ErrorContains(t, err, "THREAD_COUNT")
	})
}

func TestNewRedis(t *testing.T) {
	assert.Nil(t, newRedis(""))

	rdb := newRedis("redis://localhost:6380/2")
	defer rdb.Close()
	assert.Equal(t, "localhost:6380", rdb.Options().Addr)
	assert.Equal(t, 2, rdb.Options().DB)

	plain := newRedis("cache.internal:6379")
	defer plain.Close()
	assert.Equal(t, "cache.internal:6379", plain.Options().Addr)
}
