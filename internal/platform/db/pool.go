package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens the process-wide connection pool. It is created once at
// startup and closed by the caller on shutdown.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PoolChecker adapts a pool to the health-check interface used by the
// /health/db endpoint.
type PoolChecker struct {
	Pool *pgxpool.Pool
}

func (p PoolChecker) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Stats reports connection pool statistics.
func (p PoolChecker) Stats() map[string]interface{} {
	stat := p.Pool.Stat()
	return map[string]interface{}{
		"total_conns":      stat.TotalConns(),
		"idle_conns":       stat.IdleConns(),
		"acquired_conns":   stat.AcquiredConns(),
		"max_conns":        stat.MaxConns(),
		"acquire_count":    stat.AcquireCount(),
		"acquire_duration": stat.AcquireDuration().String(),
	}
}
