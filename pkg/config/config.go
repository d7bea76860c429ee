package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	BaseURL  string
	LogLevel string

	JWTSecret  string
	JWTTTL     time.Duration
	JWTIssuer  string
	BcryptCost int

	// StoreDriver is one of memory, sqlite or redis
	StoreDriver   string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// IDStrategy is sequence or snowflake
	IDStrategy       string
	IDSequenceStart  int64
	MachineID        int64
	TokenMaxAttempts int

	ShutdownTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "local"),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		JWTTTL:     getEnvDuration("JWT_TTL", 15*time.Minute),
		JWTIssuer:  getEnv("JWT_ISSUER", "shortlink"),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		StoreDriver:   getEnv("STORE_DRIVER", "memory"),
		DatabaseURL:   getEnv("DATABASE_URL", "file:db.sqlite"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "shortlink"),

		IDStrategy:       getEnv("ID_STRATEGY", "sequence"),
		IDSequenceStart:  int64(getEnvInt("ID_SEQUENCE_START", 1000)),
		MachineID:        int64(getEnvInt("MACHINE_ID", 0)),
		TokenMaxAttempts: getEnvInt("TOKEN_MAX_ATTEMPTS", 32),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// IsProduction reports whether logs should be JSON
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt falls back on missing or malformed values
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
