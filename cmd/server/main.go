package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/monsterrace/internal/config"
	"github.com/playperu/monsterrace/internal/database"
	"github.com/playperu/monsterrace/internal/handler/health"
	"github.com/playperu/monsterrace/internal/migrations"
	"github.com/playperu/monsterrace/internal/server"
	"github.com/playperu/monsterrace/internal/session"
	"github.com/playperu/monsterrace/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Storage ---
	store, checks, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Games ---
	games := session.NewRegistry(store, logger)
	defer games.Close()

	n, err := games.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring alarms: %w", err)
	}
	logger.Info("restored pending alarms", "count", n)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, games, server.Options{
		SPADir:         cfg.SPADir,
		AllowedOrigins: cfg.AllowedOrigins,
		Mount: func(r chi.Router) {
			r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		},
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openStore connects the configured driver and returns it with the health
// checks that cover it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, map[string]health.Checker, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.DBDir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("creating %s: %w", cfg.DBDir, err)
		}
		path := filepath.Join(cfg.DBDir, "monsterrace.db")
		db, err := database.Open(ctx, path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		v, err := migrations.Run(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", path, "schema_version", v)
		s := storage.NewSQLite(db)
		return s, map[string]health.Checker{"sqlite": s}, func() { db.Close() }, nil

	case config.StoreBolt:
		if err := os.MkdirAll(cfg.DBDir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("creating %s: %w", cfg.DBDir, err)
		}
		path := filepath.Join(cfg.DBDir, "monsterrace.bolt")
		s, err := storage.OpenBolt(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening bbolt: %w", err)
		}
		logger.Info("opened bbolt", "path", path)
		return s, map[string]health.Checker{"bbolt": s}, func() { s.Close() }, nil

	case config.StoreRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("connected to redis")
		s := storage.NewRedis(rdb)
		return s, map[string]health.Checker{"redis": s}, func() { rdb.Close() }, nil

	default:
		logger.Warn("using in-memory store, games are lost on restart")
		return storage.NewMemory(), map[string]health.Checker{}, func() {}, nil
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
