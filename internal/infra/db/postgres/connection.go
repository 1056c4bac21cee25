package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// Connect opens a pool and retries until the database answers or ctx expires.
func Connect(ctx context.Context, dsn string, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns < 4 {
		cfg.MaxConns = 4
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := pgxpool.ConnectConfig(attemptCtx, cfg)
		if err == nil {
			err = pool.Ping(attemptCtx)
			if err != nil {
				pool.Close()
			}
		}
		cancel()
		if err == nil {
			return pool, nil
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}
