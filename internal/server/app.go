// Package server assembles the auth service: storage, the optional
// revocation list, the services and the HTTP server, and runs it until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/todoauth/internal/cryptox"
	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/dmitrijs2005/todoauth/internal/server/httpapi"
	"github.com/dmitrijs2005/todoauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todoauth/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.LogFormat, cfg.Environment, os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	key := cryptox.DeriveKey([]byte(cfg.EncryptionKey), []byte(cfg.EncryptionSalt))
	cipher, err := cryptox.NewPayloadCipher(key)
	cryptox.Wipe(key)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	checks := map[string]httpapi.HealthCheck{"postgres": db.PingContext}

	var opts []services.SessionOption
	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = revocations.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			db.Close()
			return nil, err
		}
		opts = append(opts, services.WithRevocations(revocations.NewRedisRepository(rdb, nil)))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info(ctx, "token revocation enabled", "redis", cfg.RedisAddr)
	}

	sessions := services.NewSessionService(db, rm, cipher, cfg, logger, opts...)
	users := services.NewUserService(db, rm, cfg, logger)

	hs := httpapi.NewHandlerSet(logger, cfg, sessions, users, checks)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  rdb,
		server: httpapi.NewHTTPServer(cfg, logger, hs),
	}, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down within the
// configured timeout and closes the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info(context.Background(), "shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "graceful shutdown failed", "error", err)
	}

	app.close(shutdownCtx)
	app.logger.Info(shutdownCtx, "server exited")
	return runErr
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
