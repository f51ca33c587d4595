package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jordan/resume-tailor/internal/archive"
	"github.com/jordan/resume-tailor/internal/compile"
	"github.com/jordan/resume-tailor/internal/config"
	"github.com/jordan/resume-tailor/internal/extraction"
	"github.com/jordan/resume-tailor/internal/llm"
	"github.com/jordan/resume-tailor/internal/pipeline"
	"github.com/jordan/resume-tailor/internal/templates"
)

// app bundles the wired components shared by the serve and run commands.
type app struct {
	orchestrator *pipeline.Orchestrator
	store        archive.Store
	catalog      *templates.Catalog
	cfg          config.Config

	llmClient *llm.GeminiClient
}

// loadConfig merges flag-provided config file, environment, and built-in
// defaults.
func loadConfig(configPath string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())
	cfg.Finalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildApp wires the llm client, archive store, template catalog, compiler,
// and orchestrator from the config.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required (GEMINI_API_KEY env var or gemini_api_key in config)")
	}

	llmClient, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	extractor, err := extraction.NewClient(llmClient)
	if err != nil {
		_ = llmClient.Close()
		return nil, err
	}

	var store archive.Store
	if cfg.DatabaseURL != "" {
		store, err = archive.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = llmClient.Close()
			return nil, err
		}
	} else {
		log.Println("DATABASE_URL not set, using in-memory archive (records are lost on exit)")
		store = archive.NewMemory()
	}

	if err := os.MkdirAll(cfg.ArtifactsDir, 0755); err != nil {
		store.Close()
		_ = llmClient.Close()
		return nil, fmt.Errorf("failed to create artifacts dir: %w", err)
	}

	catalog := templates.NewCatalog(cfg.TemplatesDir)
	compiler := compile.New(cfg.ArtifactsDir)

	return &app{
		orchestrator: pipeline.New(extractor, catalog, compiler, store),
		store:        store,
		catalog:      catalog,
		cfg:          cfg,
		llmClient:    llmClient,
	}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.llmClient.Close()
}
