// Package app assembles the service from configuration. Both the standalone
// server and the serverless entrypoint build through New.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/auth"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
	"github.com/wadjakorntonsri/shortlink/pkg/snowflake"
)

const (
	IDStrategySequence  = "sequence"
	IDStrategySnowflake = "snowflake"
)

type App struct {
	repo    ports.Repository
	handler http.Handler
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	ids, err := newIDGenerator(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	issuer := auth.NewJWTManager(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		TTL:       cfg.JWTTTL,
		Issuer:    cfg.JWTIssuer,
	})
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	users := services.NewUserService(repo, hasher, issuer, ids)
	links := services.NewLinkService(repo, services.NewTokenGenerator(repo, cfg.TokenMaxAttempts))

	log.Info("app initialised",
		"store", cfg.StoreDriver,
		"id_strategy", cfg.IDStrategy,
		"env", cfg.AppEnv,
	)

	return &App{
		repo:    repo,
		handler: handler.NewRouter(users, links, issuer, log),
	}, nil
}

func newIDGenerator(cfg *config.Config) (ports.IDGenerator, error) {
	switch cfg.IDStrategy {
	case IDStrategySequence, "":
		return services.NewSequenceIDs(cfg.IDSequenceStart), nil
	case IDStrategySnowflake:
		gen, err := snowflake.NewGenerator(cfg.MachineID)
		if err != nil {
			return nil, err
		}
		return ports.IDGeneratorFunc(gen.Generate), nil
	default:
		return nil, fmt.Errorf("unknown ID_STRATEGY %q", cfg.IDStrategy)
	}
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Repository() ports.Repository {
	return a.repo
}

func (a *App) Close() error {
	return a.repo.Close()
}
