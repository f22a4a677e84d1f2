package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/config"
	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/handler"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
	"github.com/josh-kwaku/chama-ledger/internal/middleware"
	"github.com/josh-kwaku/chama-ledger/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("chama-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	docs, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		slog.Error("failed to open document store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer docs.Close()

	store, err := ledger.Open(ctx, ledger.Options{
		Docs:       repository.WithDeadline(docs, time.Duration(cfg.SaveTimeoutS)*time.Second),
		Key:        cfg.StoreKey,
		ShareValue: domain.MustMoney(cfg.ShareValue),
		Logger:     logger,
	})
	cancel()
	if err != nil {
		slog.Error("failed to open ledger", "key", cfg.StoreKey, "error", err)
		os.Exit(1)
	}

	health := handler.NewHealthHandler(docs, cfg.StoreBackend)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /ready", health.Readiness)
	handler.Register(mux, store, middleware.Auth(cfg.JWTSecret))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Tracing(middleware.Logging(middleware.Recovery(mux))),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "backend", cfg.StoreBackend, "version", store.Version())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := connectDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(db), nil
	case config.BackendSQLite:
		return repository.NewSQLiteStore(cfg.SQLitePath)
	case config.BackendRedis:
		return repository.NewRedisStore(ctx, repository.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		slog.Warn("using in-memory document store, ledger will not survive a restart")
		return repository.NewMemoryStore(), nil
	}
}

// connectDB retries while the database container is still starting.
func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		var db *sql.DB
		if db, err = repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connectDB: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
