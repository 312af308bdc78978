// Package postgres provides PostgreSQL persistence for the synced action journal using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rts/internal/config"
)

// applicationName tags journal connections in pg_stat_activity.
const applicationName = "rts-journal"

// ErrSchemaMissing is returned by RequireSchema when the journal migrations
// have not been applied.
var ErrSchemaMissing = errors.New("synced_actions table missing; run cmd/migrate")

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a PostgreSQL connection pool for the journal.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// RequireSchema checks that the synced_actions table exists, so a server
// fails at startup rather than on the first recorded action.
//
// Postcondition: Returns ErrSchemaMissing if the table is absent.
func (p *Pool) RequireSchema(ctx context.Context) error {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT to_regclass('synced_actions') IS NOT NULL`,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking journal schema: %w", err)
	}
	if !exists {
		return ErrSchemaMissing
	}
	return nil
}

// Health checks that the database answers within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
