package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	sessionservice "scrawl/contexts/identity/session-service"
	"scrawl/contexts/identity/session-service/adapters/credentials"
	sessionpostgres "scrawl/contexts/identity/session-service/adapters/postgres"
	"scrawl/contexts/identity/session-service/adapters/token"
	articleservice "scrawl/contexts/publishing/article-service"
	blogpostgres "scrawl/contexts/publishing/article-service/adapters/postgres"
	"scrawl/internal/platform/config"
	"scrawl/internal/platform/db"
	"scrawl/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

// BuildAPI wires the session and publishing modules against postgres
// when POSTGRES_DSN is set, and against in-memory adapters otherwise.
func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var pg *db.Postgres
	var sessions sessionservice.Module
	var blog articleservice.Module

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := sessionpostgres.AutoMigrate(pg.DB); err != nil {
			_ = pg.Close()
			return nil, err
		}
		if err := blogpostgres.AutoMigrate(pg.DB); err != nil {
			_ = pg.Close()
			return nil, err
		}

		sessionRepo := sessionpostgres.NewRepository(pg.DB, logger)
		sessions = sessionservice.NewModule(sessionservice.Dependencies{
			Sessions: sessionRepo,
			Users:    sessionRepo,
			Clock:    sessionpostgres.SystemClock{},
			Keys:     token.NewGenerator(),
			IDs:      sessionpostgres.UUIDGenerator{},
			Hasher:   credentials.NewBcryptHasher(cfg.BcryptCost),
			Window:   cfg.SessionWindow,
			Logger:   logger,
		})

		blogRepo := blogpostgres.NewRepository(pg.DB, logger)
		blog = articleservice.NewModule(articleservice.Dependencies{
			Articles:     blogRepo,
			Groups:       blogRepo,
			Memberships:  blogRepo,
			Associations: blogRepo,
			Clock:        blogpostgres.SystemClock{},
			IDs:          blogpostgres.UUIDGenerator{},
			Logger:       logger,
		})
	} else {
		logger.Warn("no postgres dsn configured, using in-memory stores",
			"event", "bootstrap_memory_fallback",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		sessions = sessionservice.NewInMemoryModule(logger)
		blog = articleservice.NewInMemoryModule(logger)
	}

	server := httpserver.New(
		sessions,
		blog,
		logger,
		normalizeAddr(cfg.HTTPPort),
		cfg.SessionCookieName,
		cfg.SessionCookieTTL,
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
