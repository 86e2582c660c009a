// Package registry owns the username to reference-embedding associations.
// Reference images live one file per username; embeddings are derived
// through the external provider and cached by content hash, so the model is
// only consulted when a reference image changes.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/faceproctor/faceproctor/internal/database"
	"github.com/faceproctor/faceproctor/internal/match"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrUserExists      = errors.New("user already registered")
	ErrUserNotFound    = errors.New("user not found")
)

// imageExtensions are the accepted reference image file extensions.
// Registration always writes .jpg; the others are accepted for images
// dropped into the folder by hand.
var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// Embedder computes a face embedding for an image. Satisfied by
// embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, imageData []byte) ([]float32, error)
}

// Registry is the file-backed user registry. Reads may proceed
// concurrently; registration is exclusive. Provider calls never run under
// the lock, so concurrent authentications do not serialize behind the
// model.
type Registry struct {
	dir      string
	embedder Embedder
	cache    database.EmbeddingCache
	mu       sync.RWMutex
}

// New creates a registry rooted at dir, creating the directory if needed.
func New(dir string, embedder Embedder, cache database.EmbeddingCache) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create users directory: %w", err)
	}
	return &Registry{dir: dir, embedder: embedder, cache: cache}, nil
}

// Register stores a reference image for a username. The embedding is
// computed first so a capture without a usable face never creates a user.
// An existing user is rejected with ErrUserExists unless overwrite is set.
func (r *Registry) Register(ctx context.Context, username string, image []byte, overwrite bool) error {
	name, err := NormalizeUsername(username)
	if err != nil {
		return err
	}

	// Model call happens before any lock or file write.
	emb, err := r.embedder.Embed(ctx, image)
	if err != nil {
		return fmt.Errorf("compute reference embedding: %w", err)
	}

	r.mu.Lock()
	if existing := r.imagePathLocked(name); existing != "" && !overwrite {
		r.mu.Unlock()
		return ErrUserExists
	}
	path := filepath.Join(r.dir, name+".jpg")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("write reference image: %w", err)
	}
	r.mu.Unlock()

	entry := database.CachedEmbedding{
		Username:  name,
		Hash:      contentHash(image),
		Embedding: emb,
		CreatedAt: time.Now(),
	}
	if err := r.cache.Put(ctx, entry); err != nil {
		// The reference image is authoritative; a cache failure only costs
		// a recompute on the next lookup.
		log.Printf("registry: failed to cache embedding for %s: %v", name, err)
	}
	return nil
}

// ReferenceEmbedding returns the embedding for a single user's reference
// image, served from the cache when the image is unchanged.
func (r *Registry) ReferenceEmbedding(ctx context.Context, username string) ([]float32, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}

	image, err := r.readImage(name)
	if err != nil {
		return nil, err
	}
	return r.embeddingFor(ctx, name, image)
}

// Snapshot returns the current (username, embedding) set sorted by
// username. Reference images without a detectable face are skipped, the
// same way unreadable images in the users folder are.
func (r *Registry) Snapshot(ctx context.Context) ([]match.Entry, error) {
	names, err := r.List()
	if err != nil {
		return nil, err
	}

	entries := make([]match.Entry, 0, len(names))
	for _, name := range names {
		image, err := r.readImage(name)
		if err != nil {
			log.Printf("registry: skipping %s: %v", name, err)
			continue
		}
		emb, err := r.embeddingFor(ctx, name, image)
		if err != nil {
			log.Printf("registry: skipping %s: %v", name, err)
			continue
		}
		entries = append(entries, match.Entry{Username: name, Embedding: emb})
	}
	return entries, nil
}

// List returns all registered usernames sorted ascending.
func (r *Registry) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read users directory: %w", err)
	}

	var names []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		for _, allowed := range imageExtensions {
			if ext == allowed {
				names = append(names, strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a reference image is stored for the username.
func (r *Registry) Exists(username string) bool {
	name, err := NormalizeUsername(username)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.imagePathLocked(name) != ""
}

// Delete removes a user's reference image and cached embedding.
func (r *Registry) Delete(ctx context.Context, username string) error {
	name, err := NormalizeUsername(username)
	if err != nil {
		return err
	}

	r.mu.Lock()
	path := r.imagePathLocked(name)
	if path == "" {
		r.mu.Unlock()
		return ErrUserNotFound
	}
	if err := os.Remove(path); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("remove reference image: %w", err)
	}
	r.mu.Unlock()

	if err := r.cache.Invalidate(ctx, name); err != nil {
		return fmt.Errorf("invalidate cached embedding: %w", err)
	}
	return nil
}

// embeddingFor serves the embedding from the cache when the stored hash
// matches the current image bytes, recomputing through the provider on miss.
func (r *Registry) embeddingFor(ctx context.Context, name string, image []byte) ([]float32, error) {
	hash := contentHash(image)

	cached, err := r.cache.Get(ctx, name, hash)
	if err != nil {
		log.Printf("registry: cache lookup failed for %s: %v", name, err)
	}
	if cached != nil {
		return cached.Embedding, nil
	}

	emb, err := r.embedder.Embed(ctx, image)
	if err != nil {
		return nil, err
	}

	entry := database.CachedEmbedding{
		Username:  name,
		Hash:      hash,
		Embedding: emb,
		CreatedAt: time.Now(),
	}
	if err := r.cache.Put(ctx, entry); err != nil {
		log.Printf("registry: failed to cache embedding for %s: %v", name, err)
	}
	return emb, nil
}

func (r *Registry) readImage(name string) ([]byte, error) {
	r.mu.RLock()
	path := r.imagePathLocked(name)
	r.mu.RUnlock()

	if path == "" {
		return nil, ErrUserNotFound
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference image: %w", err)
	}
	return image, nil
}

// imagePathLocked returns the reference image path for a username, or ""
// when none exists. Caller holds at least a read lock.
func (r *Registry) imagePathLocked(name string) string {
	for _, ext := range imageExtensions {
		path := filepath.Join(r.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
