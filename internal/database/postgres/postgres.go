// Package postgres provides the PostgreSQL-backed embedding cache, used when
// DATABASE_URL is configured. Embeddings are stored as pgvector columns.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/faceproctor/faceproctor/internal/config"
)

// Pool manages a PostgreSQL connection pool.
type Pool struct {
	db  *sql.DB
	dim int
}

// NewPool creates a new PostgreSQL connection pool. dim is the embedding
// dimension used for the vector column.
func NewPool(cfg *config.DatabaseConfig, dim int) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Verify connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db, dim: dim}, nil
}

// Migrate creates the pgvector extension and the embedding cache table.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS embedding_cache (
			username    VARCHAR(255) PRIMARY KEY,
			hash        VARCHAR(64) NOT NULL,
			embedding   vector(%d) NOT NULL,
			created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, p.dim)

	if _, err := p.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create embedding_cache table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}
