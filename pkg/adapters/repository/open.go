// Package repository picks the storage backend named by configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/memory"
	redisrepo "github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/redis"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

func Open(ctx context.Context, cfg *config.Config) (ports.Repository, error) {
	switch cfg.StoreDriver {
	case DriverMemory, "":
		return memory.NewRepository(), nil
	case DriverSQLite:
		return sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	case DriverRedis:
		return redisrepo.NewRepository(ctx, redisrepo.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
