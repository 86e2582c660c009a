package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCacheGetMiss(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "embedding_cache.json"))

	got, err := cache.Get(context.Background(), "alice", "hash1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing entry, got %+v", got)
	}
}

func TestFileCachePutAndGet(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "embedding_cache.json"))
	ctx := context.Background()

	entry := CachedEmbedding{
		Username:  "alice",
		Hash:      "hash1",
		Embedding: []float32{0.1, 0.2, 0.3},
		CreatedAt: time.Now(),
	}
	if err := cache.Put(ctx, entry); err != nil {
		t.Fatalf("failed to put: %v", err)
	}

	got, err := cache.Get(ctx, "alice", "hash1")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached entry, got nil")
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != 0.2 {
		t.Errorf("unexpected embedding: %v", got.Embedding)
	}
}

func TestFileCacheHashMismatch(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "embedding_cache.json"))
	ctx := context.Background()

	if err := cache.Put(ctx, CachedEmbedding{Username: "alice", Hash: "old", Embedding: []float32{1}}); err != nil {
		t.Fatalf("failed to put: %v", err)
	}

	// A different hash means the reference image changed; the stale entry
	// must not be served.
	got, err := cache.Get(ctx, "alice", "new")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for stale hash, got %+v", got)
	}
}

func TestFileCacheInvalidate(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "embedding_cache.json"))
	ctx := context.Background()

	if err := cache.Put(ctx, CachedEmbedding{Username: "alice", Hash: "h", Embedding: []float32{1}}); err != nil {
		t.Fatalf("failed to put: %v", err)
	}
	if err := cache.Invalidate(ctx, "alice"); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	got, err := cache.Get(ctx, "alice", "h")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after invalidation, got %+v", got)
	}

	// Invalidating an absent user is a no-op.
	if err := cache.Invalidate(ctx, "nobody"); err != nil {
		t.Errorf("unexpected error for absent user: %v", err)
	}
}

func TestFileCachePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding_cache.json")
	ctx := context.Background()

	if err := NewFileCache(path).Put(ctx, CachedEmbedding{Username: "alice", Hash: "h", Embedding: []float32{0.5}}); err != nil {
		t.Fatalf("failed to put: %v", err)
	}

	got, err := NewFileCache(path).Get(ctx, "alice", "h")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got == nil || got.Embedding[0] != 0.5 {
		t.Errorf("expected persisted entry, got %+v", got)
	}
}
