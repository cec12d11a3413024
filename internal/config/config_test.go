package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Postgres.URL != "" || cfg.Redis.Addr != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9090"
postgres:
  url: postgres://file
redis:
  addr: localhost:6379
auth:
  jwt_secret: from-file
cors:
  allowed_origins: ["https://app.example.com"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://env" {
		t.Fatalf("expected env override, got %q", cfg.Postgres.URL)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Fatalf("empty env must not override, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Quiz.TTL != "10m" {
		t.Fatalf("expected default quiz ttl kept, got %q", cfg.Quiz.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Fatalf("expected one origin, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad value, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a , ,b")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected %v", got)
	}
}
