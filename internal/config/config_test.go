package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.AdminTokenTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("ADMIN_SEED_ENABLED", "true")
	t.Setenv("LOGIN_RATE_LIMIT_PER_MIN", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.AdminSeed.Enabled)
	assert.Equal(t, 20, cfg.LoginRateLimit)
}

func TestCreateEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disabled falls back to mock", func(t *testing.T) {
		cfg := EventConfig{Enabled: false, Publisher: "kafka"}
		pub, err := cfg.CreateEventPublisher(logger)
		require.NoError(t, err)
		assert.IsType(t, &events.MockEventPublisher{}, pub)
	})

	t.Run("memory", func(t *testing.T) {
		cfg := EventConfig{Enabled: true, Publisher: "memory", Topic: "t"}
		pub, err := cfg.CreateEventPublisher(logger)
		require.NoError(t, err)
		defer pub.Close()
		assert.IsType(t, &events.MemoryEventPublisher{}, pub)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := EventConfig{Enabled: true, Publisher: "carrier-pigeon"}
		pub, err := cfg.CreateEventPublisher(logger)
		require.NoError(t, err)
		assert.IsType(t, &events.MockEventPublisher{}, pub)
	})

	t.Run("brokers are trimmed", func(t *testing.T) {
		cfg := EventConfig{KafkaBrokers: "k1:9092, k2:9092,"}
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.GetKafkaBrokers())
	})
}
