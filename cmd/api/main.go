package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"borges/db"
	"borges/internal/catalog"
	"borges/internal/config"
	"borges/internal/httpx"
	"borges/internal/logging"
	"borges/internal/platform/googlebooks"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, pool, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	metadata := googlebooks.NewClient(googlebooks.Config{
		BaseURL:  cfg.Metadata.BaseURL,
		APIKey:   cfg.Metadata.APIKey,
		RPS:      cfg.Metadata.RPS,
		Timeout:  cfg.Metadata.Timeout,
		CacheTTL: cfg.Metadata.CacheTTL,
	})
	defer metadata.Close()

	svc := catalog.NewService(repo, metadata)

	limiter := httpx.NewRateLimitMiddleware(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	defer limiter.Stop()

	var ready readinessCheck
	if pool != nil {
		ready = pool.Ping
	}
	router := newRouter(catalog.NewHTTPHandler(svc), ready, cfg.JWTSecret)

	handler := httpx.Chain(router,
		httpx.RecoveryMiddleware,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.SecurityHeadersMiddleware(false),
		httpx.CORSMiddleware(cfg.HTTP.AllowedOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.HTTP.MaxBodyBytes),
	)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Addr, "durable", cfg.Durable(), "auth", cfg.JWTSecret != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

type readinessCheck func(ctx context.Context) error

// newRouter registers the query endpoint and probes. Bearer auth guards the
// query endpoint only, and only when secret is set.
func newRouter(h *catalog.HTTPHandler, ready readinessCheck, secret string) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	var query http.Handler = http.HandlerFunc(h.Query)
	if secret != "" {
		query = httpx.AuthMiddleware(secret)(query)
	}
	router.Handle("POST /{$}", query)
	router.Handle("POST /query", query)
	router.HandleFunc("GET /{$}", h.Operations)

	return router
}

// openRepository picks the durable backend when a DSN is configured and the
// in-memory backend otherwise. The returned pool is nil for the latter.
func openRepository(ctx context.Context, cfg config.Config) (catalog.Repository, *pgxpool.Pool, error) {
	if !cfg.Durable() {
		var seed []catalog.Book
		if cfg.SeedDemo {
			seed = append(seed, catalog.DemoBook())
		}
		slog.Info("using in-memory catalog", "seeded", len(seed))
		return catalog.NewMemoryRepo(seed...), nil, nil
	}

	pool, err := openPool(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("migrations applied")
	}
	return catalog.NewPostgresRepo(pool, cfg.DB.QueryTimeout), pool, nil
}

func openPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn (%s): %w", redactDSN(dsn), err)
	}
	poolCfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", redactDSN(dsn), err)
	}
	slog.Info("database connection OK", "max_conns", maxConns)
	return pool, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
