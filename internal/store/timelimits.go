package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// TimeLimits is a small persisted table of per-user exam durations in
// seconds. Read-modify-write cycles are serialized by a mutex so concurrent
// updates cannot lose each other.
type TimeLimits struct {
	mu   sync.Mutex
	path string
}

// NewTimeLimits creates a time-limit table backed by the given JSON file.
func NewTimeLimits(path string) *TimeLimits {
	return &TimeLimits{path: path}
}

// Get returns the time limit for a username, or def when no override is set.
func (t *TimeLimits) Get(username string, def int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	limits, err := t.load()
	if err != nil {
		return 0, err
	}

	if seconds, ok := limits[username]; ok {
		return seconds, nil
	}
	return def, nil
}

// Set stores a per-user override. Seconds must be positive.
func (t *TimeLimits) Set(username string, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("time limit must be positive, got %d", seconds)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	limits, err := t.load()
	if err != nil {
		return err
	}

	limits[username] = seconds
	return t.save(limits)
}

// All returns a copy of every override.
func (t *TimeLimits) All() (map[string]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load()
}

func (t *TimeLimits) load() (map[string]int, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return make(map[string]int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read time limits: %w", err)
	}

	limits := make(map[string]int)
	if err := json.Unmarshal(data, &limits); err != nil {
		return nil, fmt.Errorf("parse time limits: %w", err)
	}
	return limits, nil
}

func (t *TimeLimits) save(limits map[string]int) error {
	data, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("marshal time limits: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("write time limits: %w", err)
	}
	return nil
}
