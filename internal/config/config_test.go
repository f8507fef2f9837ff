package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.Model != "gemini/gemini-2.0-flash" {
		t.Errorf("unexpected default model %q", cfg.Pipeline.Model)
	}
	if cfg.Pipeline.Variant != "full" {
		t.Errorf("unexpected default variant %q", cfg.Pipeline.Variant)
	}
	if cfg.Pipeline.StageTimeout != 2*time.Minute {
		t.Errorf("unexpected default stage timeout %v", cfg.Pipeline.StageTimeout)
	}
	if cfg.Limits.GlobalMax != 10 || cfg.Limits.PerProject != 1 {
		t.Errorf("unexpected default limits %+v", cfg.Limits)
	}
	if cfg.Providers == nil {
		t.Error("providers map must never be nil")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
database:
  url: postgres://localhost/brandcrew
pipeline:
  variant: review
  model: openai/gpt-4o-mini
  fallback_models:
    - gemini/gemini-2.0-flash
  stage_timeout: 30s
limits:
  global_max: 3
  per_project: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("server overrides not applied: %+v", cfg.Server)
	}
	if cfg.Database.URL != "postgres://localhost/brandcrew" {
		t.Errorf("database url not applied: %q", cfg.Database.URL)
	}
	if cfg.Pipeline.Variant != "review" {
		t.Errorf("variant not applied: %q", cfg.Pipeline.Variant)
	}
	if cfg.Pipeline.StageTimeout != 30*time.Second {
		t.Errorf("stage timeout not applied: %v", cfg.Pipeline.StageTimeout)
	}

	models := cfg.Pipeline.Models()
	if len(models) != 2 || models[0] != "openai/gpt-4o-mini" || models[1] != "gemini/gemini-2.0-flash" {
		t.Errorf("unexpected fallback chain %v", models)
	}
	if cfg.Limits.GlobalMax != 3 || cfg.Limits.PerProject != 2 {
		t.Errorf("limits not applied: %+v", cfg.Limits)
	}
}

func TestLoadExpandsAPIKeyEnv(t *testing.T) {
	t.Setenv("BRANDCREW_TEST_KEY", "sk-expanded")
	path := writeConfig(t, `
providers:
  gemini:
    type: gemini
    api_key: ${BRANDCREW_TEST_KEY}
  local:
    type: openai
    url: http://localhost:11434/v1
    api_key: literal-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := cfg.Providers["gemini"].APIKey; got != "sk-expanded" {
		t.Errorf("env expansion failed: %q", got)
	}
	if got := cfg.Providers["local"].APIKey; got != "literal-key" {
		t.Errorf("literal key mangled: %q", got)
	}
	if cfg.Providers["local"].URL != "http://localhost:11434/v1" {
		t.Errorf("provider url not applied: %q", cfg.Providers["local"].URL)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
