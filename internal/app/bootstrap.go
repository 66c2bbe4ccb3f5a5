package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/estatedesk/estatedesk/internal/analytics"
	"github.com/estatedesk/estatedesk/internal/platform/cache"
	"github.com/estatedesk/estatedesk/internal/platform/db"
	"github.com/estatedesk/estatedesk/internal/snapshot"
)

// Dependencies groups the long-lived clients shared by the server and worker.
type Dependencies struct {
	Redis     *redis.Client
	Pool      *pgxpool.Pool
	Loader    snapshot.Loader
	Dashboard *analytics.Service
}

// Bootstrap connects to Redis, builds the configured snapshot loader and the
// dashboard service. Close releases everything it opened.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger, reg prometheus.Registerer) (*Dependencies, error) {
	if err := analytics.SetupCacheMetrics(reg); err != nil {
		return nil, fmt.Errorf("setup cache metrics: %w", err)
	}

	deps := &Dependencies{}
	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, err
	}
	deps.Redis = redisClient

	loader, pool, err := NewSnapshotLoader(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Loader = loader
	deps.Pool = pool

	deps.Dashboard = analytics.NewService(loader, analytics.NewCache(redisClient, cfg.CacheTTL), analytics.Options{
		NowBucket:   cfg.NowBucket,
		LoadTimeout: cfg.LoadTimeout,
		Logger:      logger,
	})
	logger.Info("dashboard configured",
		slog.String("source", cfg.Source),
		slog.Duration("now_bucket", cfg.NowBucket),
	)
	return deps, nil
}

// NewSnapshotLoader builds the loader for cfg.Source. The pool is non-nil only
// for the postgres source and must be closed by the caller.
func NewSnapshotLoader(ctx context.Context, cfg *Config) (snapshot.Loader, *pgxpool.Pool, error) {
	switch cfg.Source {
	case SourceREST:
		return snapshot.NewRESTLoader(cfg.UpstreamURL, cfg.UpstreamToken, cfg.UpstreamTimeout), nil, nil
	case SourcePostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewPostgresLoader(pool), pool, nil
	case SourceFile:
		return snapshot.NewFileLoader(cfg.SnapshotFile), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot source %q", cfg.Source)
	}
}

// Close releases the clients opened by Bootstrap.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}
