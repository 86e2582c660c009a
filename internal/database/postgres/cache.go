package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/faceproctor/faceproctor/internal/database"
)

// CacheRepository provides PostgreSQL-backed embedding cache storage.
type CacheRepository struct {
	pool *Pool
}

// NewCacheRepository creates a new PostgreSQL cache repository.
func NewCacheRepository(pool *Pool) *CacheRepository {
	return &CacheRepository{pool: pool}
}

// Get retrieves the cached embedding for a username, returns nil when no
// entry exists or the stored hash differs from the requested one.
func (r *CacheRepository) Get(ctx context.Context, username, hash string) (*database.CachedEmbedding, error) {
	query := `
		SELECT username, hash, embedding, created_at
		FROM embedding_cache
		WHERE username = $1 AND hash = $2
	`

	var entry database.CachedEmbedding
	var vec pgvector.Vector

	err := r.pool.db.QueryRowContext(ctx, query, username, hash).Scan(
		&entry.Username,
		&entry.Hash,
		&vec,
		&entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query embedding cache: %w", err)
	}

	entry.Embedding = vec.Slice()
	return &entry, nil
}

// Put stores an embedding, replacing any previous entry for the username.
func (r *CacheRepository) Put(ctx context.Context, entry database.CachedEmbedding) error {
	query := `
		INSERT INTO embedding_cache (username, hash, embedding, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (username) DO UPDATE SET
			hash = EXCLUDED.hash,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at
	`

	vec := pgvector.NewVector(entry.Embedding)
	if _, err := r.pool.db.ExecContext(ctx, query, entry.Username, entry.Hash, vec); err != nil {
		return fmt.Errorf("save embedding cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the entry for a username.
func (r *CacheRepository) Invalidate(ctx context.Context, username string) error {
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM embedding_cache WHERE username = $1", username); err != nil {
		return fmt.Errorf("invalidate embedding cache entry: %w", err)
	}
	return nil
}
