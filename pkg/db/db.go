package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB defines the interface for database operations, compatible with pgxpool.Pool
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Open connects to Postgres and makes sure the generation log table exists.
func Open(ctx context.Context, dbURL string) (*PostgresRepository, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	repo := NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}
