package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{ConfigFile: writeFile(t, dir, "ideabridge.yaml", "log:\n  level: info\n"), EnvFile: filepath.Join(dir, "missing.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080/api" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if cfg.Session.Driver != "sqlite3" {
		t.Fatalf("unexpected session driver %q", cfg.Session.Driver)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "ideabridge.yaml", strings.Join([]string{
		"api:",
		"  base_url: http://file.example/api/",
		"  timeout: 3s",
		"  paths:",
		"    ideas: /ideas",
		"session:",
		"  driver: memory",
	}, "\n"))
	t.Setenv("IDEABRIDGE_API_BASE_URL", "http://env.example/api")

	cfg, err := Load(Options{ConfigFile: file, EnvFile: filepath.Join(dir, "missing.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example/api" {
		t.Fatalf("env should override file, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if cfg.API.Paths["ideas"] != "/ideas" {
		t.Fatalf("expected ideas path override, got %v", cfg.API.Paths)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "IDEABRIDGE_LOG_LEVEL=debug\n")
	t.Cleanup(func() { os.Unsetenv("IDEABRIDGE_LOG_LEVEL") })

	cfg, err := Load(Options{ConfigFile: writeFile(t, dir, "c.yaml", "{}\n"), EnvFile: env})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected level from .env, got %q", cfg.Log.Level)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "c.yaml", "session:\n  driver: mongo\n")
	if _, err := Load(Options{ConfigFile: file, EnvFile: filepath.Join(dir, "missing.env")}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
