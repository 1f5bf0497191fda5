package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("AI_SERVICE_URL", "")
	t.Setenv("AI_SERVICE_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AIServiceURL != "http://localhost:8000" {
		t.Errorf("unexpected service URL %q", cfg.AIServiceURL)
	}
	if cfg.AIServiceTimeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %s", cfg.AIServiceTimeout)
	}
	if cfg.Port != "8080" {
		t.Errorf("unexpected port %q", cfg.Port)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promptly.yaml")
	content := []byte(`
port: "9090"
ai_service_url: http://generator:8000
ai_service_timeout: 30s
ai_service_headers:
  X-Api-Key: abc
rate_limit_per_minute: 5
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "")
	t.Setenv("AI_SERVICE_URL", "http://override:8000")
	t.Setenv("AI_SERVICE_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.AIServiceURL != "http://override:8000" {
		t.Errorf("expected env override, got %q", cfg.AIServiceURL)
	}
	if cfg.AIServiceTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %s", cfg.AIServiceTimeout)
	}
	if cfg.RateLimitPerMinute != 5 {
		t.Errorf("expected 5, got %d", cfg.RateLimitPerMinute)
	}

	rc := cfg.Remote()
	if rc.BaseURL != "http://override:8000" || rc.Timeout != 30*time.Second {
		t.Errorf("unexpected remote config %+v", rc)
	}
	if rc.Headers["X-Api-Key"] != "abc" {
		t.Errorf("expected header to carry through, got %v", rc.Headers)
	}
	if err := rc.Validate(); err != nil {
		t.Errorf("expected valid remote config: %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("AI_SERVICE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid timeout")
	}

	t.Setenv("AI_SERVICE_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "many")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid rate limit")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
