package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Database  DatabaseConfig            `yaml:"database"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Pipeline  PipelineConfig            `yaml:"pipeline"`
	Limits    LimitsConfig              `yaml:"limits"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// all records in memory only.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ProviderConfig holds AI provider settings.
type ProviderConfig struct {
	Type   string `yaml:"type"`    // "gemini" or "openai"
	URL    string `yaml:"url"`     // base URL for OpenAI-compatible endpoints
	APIKey string `yaml:"api_key"` // supports ${ENV_VAR} expansion
}

// PipelineConfig selects the stage variant and the model fallback chain.
type PipelineConfig struct {
	Variant        string        `yaml:"variant"`         // "full" (default) or "review"
	Model          string        `yaml:"model"`           // primary "provider/model" identifier
	FallbackModels []string      `yaml:"fallback_models"` // tried in order after the primary
	StageTimeout   time.Duration `yaml:"stage_timeout"`   // per-generation-call bound
}

// LimitsConfig bounds concurrent run execution.
type LimitsConfig struct {
	GlobalMax  int `yaml:"global_max"`  // max concurrent runs system-wide (default: 10)
	PerProject int `yaml:"per_project"` // max concurrent runs per project (default: 1)
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database:  DatabaseConfig{},
		Providers: map[string]ProviderConfig{},
		Pipeline: PipelineConfig{
			Variant:      "full",
			Model:        "gemini/gemini-2.0-flash",
			StageTimeout: 2 * time.Minute,
		},
		Limits: LimitsConfig{
			GlobalMax:  10,
			PerProject: 1,
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
// Provider API keys may reference environment variables as ${NAME}.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Ensure Providers map is never nil even if YAML has "providers: {}" or omits it.
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for name, p := range cfg.Providers {
		p.APIKey = os.ExpandEnv(p.APIKey)
		cfg.Providers[name] = p
	}

	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns sensible defaults.
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Models returns the full fallback chain, primary model first.
func (p PipelineConfig) Models() []string {
	return append([]string{p.Model}, p.FallbackModels...)
}
