package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Data      DataConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Exam      ExamConfig
	Database  DatabaseConfig
	Web       WebConfig
	Admin     AdminConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
}

type DataConfig struct {
	Dir string // root directory for reference images, logs and config files
}

// The data directory layout mirrors the original deployment: a users
// folder with one reference image per person plus flat log and config
// files next to it.

func (d DataConfig) UsersDir() string       { return filepath.Join(d.Dir, "users") }
func (d DataConfig) AuthLogPath() string    { return filepath.Join(d.Dir, "auth_log.txt") }
func (d DataConfig) ResultLogPath() string  { return filepath.Join(d.Dir, "cbt_results.txt") }
func (d DataConfig) LedgerPath() string     { return filepath.Join(d.Dir, "attempt_resets.txt") }
func (d DataConfig) TimeLimitsPath() string { return filepath.Join(d.Dir, "user_time_limits.json") }
func (d DataConfig) QuestionsPath() string  { return filepath.Join(d.Dir, "questions.yaml") }
func (d DataConfig) CachePath() string      { return filepath.Join(d.Dir, "embedding_cache.json") }

type EmbeddingConfig struct {
	URL            string // embedding service base URL, defaults to http://localhost:8000
	Dim            int    // expected embedding dimension (512 for face models)
	TimeoutSeconds int    // per-request timeout for the embedding service
}

type MatchingConfig struct {
	Threshold float64 // minimum cosine similarity to accept a match
}

type ExamConfig struct {
	DefaultTimeLimitSeconds int // exam duration when no per-user override exists
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (optional, file cache used when empty)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	AllowedOrigins []string // CORS origin whitelist (localhost is always allowed)
}

type AdminConfig struct {
	Token         string // bearer token for admin endpoints
	SessionSecret string // HMAC secret for web session cookies
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envList reads a comma-separated environment variable into a slice,
// dropping blank entries.
func envList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// envFloat reads an environment variable and parses it as a float in [0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	return &Config{
		Data: DataConfig{
			Dir: dataDir,
		},
		Embedding: EmbeddingConfig{
			URL:            os.Getenv("EMBEDDING_URL"),
			Dim:            envInt("EMBEDDING_DIM", 512),
			TimeoutSeconds: envInt("EMBEDDING_TIMEOUT_SECONDS", 30),
		},
		Matching: MatchingConfig{
			Threshold: envFloat("SIMILARITY_THRESHOLD", 0.6),
		},
		Exam: ExamConfig{
			DefaultTimeLimitSeconds: envInt("DEFAULT_TIME_LIMIT_SECONDS", 120),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Admin: AdminConfig{
			Token:         os.Getenv("ADMIN_TOKEN"),
			SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
	}
}
