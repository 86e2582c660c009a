package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Data.Dir != "data" {
		t.Errorf("expected default data dir 'data', got '%s'", cfg.Data.Dir)
	}
	if cfg.Embedding.Dim != 512 {
		t.Errorf("expected default embedding dim 512, got %d", cfg.Embedding.Dim)
	}
	if cfg.Matching.Threshold != 0.6 {
		t.Errorf("expected default threshold 0.6, got %f", cfg.Matching.Threshold)
	}
	if cfg.Exam.DefaultTimeLimitSeconds != 120 {
		t.Errorf("expected default time limit 120, got %d", cfg.Exam.DefaultTimeLimitSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/proctor")
	t.Setenv("EMBEDDING_DIM", "768")
	t.Setenv("SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("DEFAULT_TIME_LIMIT_SECONDS", "300")

	cfg := Load()

	if cfg.Data.Dir != "/tmp/proctor" {
		t.Errorf("expected data dir '/tmp/proctor', got '%s'", cfg.Data.Dir)
	}
	if cfg.Embedding.Dim != 768 {
		t.Errorf("expected embedding dim 768, got %d", cfg.Embedding.Dim)
	}
	if cfg.Matching.Threshold != 0.75 {
		t.Errorf("expected threshold 0.75, got %f", cfg.Matching.Threshold)
	}
	if cfg.Exam.DefaultTimeLimitSeconds != 300 {
		t.Errorf("expected time limit 300, got %d", cfg.Exam.DefaultTimeLimitSeconds)
	}
}

func TestAllowedOriginsParsed(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://exam.example.com, https://admin.example.com ,")

	cfg := Load()

	want := []string{"https://exam.example.com", "https://admin.example.com"}
	if len(cfg.Web.AllowedOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %d", len(want), len(cfg.Web.AllowedOrigins))
	}
	for i, o := range want {
		if cfg.Web.AllowedOrigins[i] != o {
			t.Errorf("expected origin %q at %d, got %q", o, i, cfg.Web.AllowedOrigins[i])
		}
	}
}

func TestEnvIntRejectsInvalid(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "not-a-number")
	if got := envInt("EMBEDDING_DIM", 512); got != 512 {
		t.Errorf("expected fallback 512 for invalid value, got %d", got)
	}

	t.Setenv("EMBEDDING_DIM", "-5")
	if got := envInt("EMBEDDING_DIM", 512); got != 512 {
		t.Errorf("expected fallback 512 for negative value, got %d", got)
	}
}

func TestEnvFloatRejectsOutOfRange(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "1.5")
	if got := envFloat("SIMILARITY_THRESHOLD", 0.6); got != 0.6 {
		t.Errorf("expected fallback 0.6 for out-of-range threshold, got %f", got)
	}
}
