package db

import (
	"context"
	"fmt"
)

// GenerationLog is the metadata of one /generate call. Prompts and generated
// code are never stored.
type GenerationLog struct {
	RequestID        string
	Variant          string
	Model            string
	Outcome          string
	StatusCode       int
	UpstreamStatus   int
	PromptTokens     int
	CompletionTokens int
	DurationMS       int64
}

// Repository defines the interface for all database operations
type Repository interface {
	InsertGenerationLog(ctx context.Context, log GenerationLog) error
	Close()
}

type PostgresRepository struct {
	pool DB
}

func NewPostgresRepository(pool DB) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const createGenerationLogs = `CREATE TABLE IF NOT EXISTS generation_logs (
	id                BIGSERIAL PRIMARY KEY,
	request_id        TEXT NOT NULL DEFAULT '',
	variant           TEXT NOT NULL,
	model             TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	status_code       INTEGER NOT NULL,
	upstream_status   INTEGER NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	duration_ms       BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createGenerationLogs); err != nil {
		return fmt.Errorf("create generation_logs: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertGenerationLog(ctx context.Context, log GenerationLog) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO generation_logs (request_id, variant, model, outcome, status_code, upstream_status, prompt_tokens, completion_tokens, duration_ms) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		log.RequestID, log.Variant, log.Model, log.Outcome, log.StatusCode, log.UpstreamStatus, log.PromptTokens, log.CompletionTokens, log.DurationMS)
	return err
}

func (r *PostgresRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// NopRepository discards every log. Used when no database is configured.
type NopRepository struct{}

func (NopRepository) InsertGenerationLog(context.Context, GenerationLog) error { return nil }
func (NopRepository) Close() {}
