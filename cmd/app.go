package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/faceproctor/faceproctor/internal/config"
	"github.com/faceproctor/faceproctor/internal/database"
	"github.com/faceproctor/faceproctor/internal/database/postgres"
	"github.com/faceproctor/faceproctor/internal/embedding"
	"github.com/faceproctor/faceproctor/internal/exam"
	"github.com/faceproctor/faceproctor/internal/match"
	"github.com/faceproctor/faceproctor/internal/registry"
	"github.com/faceproctor/faceproctor/internal/store"
)

// app wires the domain components for CLI commands and the web server.
type app struct {
	cfg        *config.Config
	registry   *registry.Registry
	matcher    *match.Matcher
	controller *exam.Controller
	authLog    *store.AuthLog
	resultLog  *store.ResultLog
	ledger     *store.Ledger
	timeLimits *store.TimeLimits

	pool *postgres.Pool // nil when the file cache backend is used
}

// newApp builds the component graph. The embedding cache backend is
// PostgreSQL when DATABASE_URL is set, a JSON file otherwise.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	embedder := embedding.NewClient(
		cfg.Embedding.URL,
		cfg.Embedding.Dim,
		time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second,
	)

	var cache database.EmbeddingCache
	var pool *postgres.Pool
	if cfg.Database.URL != "" {
		var err error
		pool, err = postgres.NewPool(&cfg.Database, cfg.Embedding.Dim)
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		cache = postgres.NewCacheRepository(pool)
	} else {
		cache = database.NewFileCache(cfg.Data.CachePath())
	}

	reg, err := registry.New(cfg.Data.UsersDir(), embedder, cache)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		registry:   reg,
		matcher:    match.NewMatcher(cfg.Matching.Threshold),
		authLog:    store.NewAuthLog(cfg.Data.AuthLogPath()),
		resultLog:  store.NewResultLog(cfg.Data.ResultLogPath()),
		ledger:     store.NewLedger(cfg.Data.LedgerPath()),
		timeLimits: store.NewTimeLimits(cfg.Data.TimeLimitsPath()),
		pool:       pool,
	}

	a.controller = exam.NewController(exam.Config{
		Registry:                reg,
		Embedder:                embedder,
		Matcher:                 a.matcher,
		AuthLog:                 a.authLog,
		ResultLog:               a.resultLog,
		Ledger:                  a.ledger,
		TimeLimits:              a.timeLimits,
		DefaultTimeLimitSeconds: cfg.Exam.DefaultTimeLimitSeconds,
		QuestionsPath:           cfg.Data.QuestionsPath(),
	})

	return a, nil
}

// rebuildIndex snapshots the registry and rebuilds the approximate index
// used for identification over large registries.
func (a *app) rebuildIndex(ctx context.Context) error {
	snapshot, err := a.registry.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot registry: %w", err)
	}
	return a.matcher.Rebuild(snapshot)
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
