package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	// Malformed numeric values fall back to the defaults
	t.Setenv("JWT_TTL", "")
	t.Setenv("ID_SEQUENCE_START", "")
	t.Setenv("TOKEN_MAX_ATTEMPTS", "x")

	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, int64(1000), cfg.IDSequenceStart)
	assert.Equal(t, 32, cfg.TokenMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvHelpers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "42", 42},
		{"malformed", "forty-two", 7},
		{"empty", "", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			assert.Equal(t, tt.want, getEnvInt("TEST_INT", 7))
		})
	}

	t.Setenv("TEST_DURATION", "bogus")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
	t.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_DURATION", time.Second))
}
