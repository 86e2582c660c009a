// Package database defines the embedding cache: derived face embeddings
// keyed by the content hash of the reference image they were computed from.
// Re-registering a user changes the hash and thereby invalidates the entry,
// so the expensive model call only runs when the reference image changes.
package database

import (
	"context"
	"time"
)

// CachedEmbedding is a stored embedding together with the hash of the
// reference image it was derived from.
type CachedEmbedding struct {
	Username  string
	Hash      string // SHA-256 of the reference image bytes
	Embedding []float32
	CreatedAt time.Time
}

// EmbeddingCache stores derived embeddings. Get returns nil (no error) when
// no entry exists for the username or the stored hash differs.
type EmbeddingCache interface {
	Get(ctx context.Context, username, hash string) (*CachedEmbedding, error)
	Put(ctx context.Context, entry CachedEmbedding) error
	Invalidate(ctx context.Context, username string) error
}
