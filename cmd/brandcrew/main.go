package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/brandcrew/brandcrew/internal/api"
	"github.com/brandcrew/brandcrew/internal/config"
	"github.com/brandcrew/brandcrew/internal/crew"
	"github.com/brandcrew/brandcrew/internal/db"
	"github.com/brandcrew/brandcrew/internal/provider"
	"github.com/brandcrew/brandcrew/internal/repository"
	"github.com/brandcrew/brandcrew/internal/services"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("brandcrew v0.1.0")
	fmt.Println("Usage: brandcrew serve")
}

func serve() {
	// Load .env before the config so ${VAR} credential references resolve.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	providers := provider.NewRegistry()
	hasCredential := false
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			hasCredential = true
		}
		switch pc.Type {
		case "gemini":
			providers.Register(provider.NewGeminiProvider(name, pc.APIKey))
		default:
			opts := []provider.OpenAIOption{provider.WithName(name)}
			if pc.URL != "" {
				opts = append(opts, provider.WithBaseURL(pc.URL))
			}
			providers.Register(provider.NewOpenAIProvider(pc.APIKey, opts...))
		}
	}
	// Sensible default when nothing is configured: native Gemini keyed
	// from the environment, matching the default pipeline model.
	if len(cfg.Providers) == 0 {
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		hasCredential = key != ""
		providers.Register(provider.NewGeminiProvider("gemini", key))
	}

	memProjects := repository.NewMemoryProjectRepository()
	memRuns := repository.NewMemoryRunRepository()
	var projectRepo repository.ProjectRepository = memProjects
	var runRepo repository.RunRepository = memRuns

	if cfg.Database.URL != "" {
		database, err := db.New(context.Background(), cfg.Database.URL)
		if err != nil {
			slog.Error("database error", "err", err)
			os.Exit(1)
		}
		defer database.Close()
		if err := database.Migrate(context.Background()); err != nil {
			slog.Error("migration error", "err", err)
			os.Exit(1)
		}
		projectRepo = repository.NewPersistentProjectRepository(memProjects, database)
		runRepo = repository.NewPersistentRunRepository(memRuns, database)
		slog.Info("postgres persistence enabled")
	}

	chain := provider.NewChain(providers, cfg.Pipeline.Models(), provider.DefaultRetryPolicy())
	runner := services.NewRunner(chain, runRepo, cfg.Pipeline.StageTimeout)
	limiter := services.NewConcurrencyLimiter(cfg.Limits)
	stages := crew.StagesForVariant(cfg.Pipeline.Variant)
	projectSvc := services.NewProjectService(projectRepo, runRepo, runner, limiter, stages, hasCredential)

	srv := api.NewServer(projectSvc, chain.Models())
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting brandcrew server", "addr", addr, "model", cfg.Pipeline.Model, "variant", cfg.Pipeline.Variant)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
