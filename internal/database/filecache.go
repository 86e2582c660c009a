package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// fileCacheEntry is the on-disk shape of one cached embedding.
type fileCacheEntry struct {
	Hash      string    `json:"hash"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// FileCache is the default EmbeddingCache backend: a single JSON file,
// serialized by a mutex. Suitable for the small registries this system
// typically runs with; larger deployments configure the PostgreSQL backend.
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache creates a file-backed embedding cache at the given path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Get(ctx context.Context, username, hash string) (*CachedEmbedding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load()
	if err != nil {
		return nil, err
	}

	entry, ok := entries[username]
	if !ok || entry.Hash != hash {
		return nil, nil
	}

	return &CachedEmbedding{
		Username:  username,
		Hash:      entry.Hash,
		Embedding: entry.Embedding,
		CreatedAt: entry.CreatedAt,
	}, nil
}

func (c *FileCache) Put(ctx context.Context, entry CachedEmbedding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load()
	if err != nil {
		return err
	}

	entries[entry.Username] = fileCacheEntry{
		Hash:      entry.Hash,
		Embedding: entry.Embedding,
		CreatedAt: entry.CreatedAt,
	}
	return c.save(entries)
}

func (c *FileCache) Invalidate(ctx context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load()
	if err != nil {
		return err
	}

	if _, ok := entries[username]; !ok {
		return nil
	}
	delete(entries, username)
	return c.save(entries)
}

func (c *FileCache) load() (map[string]fileCacheEntry, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return make(map[string]fileCacheEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}

	entries := make(map[string]fileCacheEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse embedding cache: %w", err)
	}
	return entries, nil
}

func (c *FileCache) save(entries map[string]fileCacheEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal embedding cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write embedding cache: %w", err)
	}
	return nil
}
