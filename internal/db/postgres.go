package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	newPool  = pgxpool.NewWithConfig
	pingPool = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
)

// InitPostgres opens a pool against url and checks it with a ping. The caller
// owns the pool and must Close it on shutdown.
func InitPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is empty", domain.ErrStoreUnavailable)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %w", domain.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pingPool(pingCtx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", domain.ErrStoreUnavailable, err)
	}
	return pool, nil
}
