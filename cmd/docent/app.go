package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/docentlabs/docent/internal/batch"
	"github.com/docentlabs/docent/internal/cache"
	"github.com/docentlabs/docent/internal/classify"
	"github.com/docentlabs/docent/internal/config"
	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/extract"
	"github.com/docentlabs/docent/internal/home"
	"github.com/docentlabs/docent/internal/invoke"
	"github.com/docentlabs/docent/internal/projection"
	"github.com/docentlabs/docent/internal/providers"
	"github.com/docentlabs/docent/internal/schema"
)

var verbose bool

// app wires the full extraction stack for one command invocation.
type app struct {
	home    *home.Dir
	cfg     *config.Config
	logger  *slog.Logger
	catalog *schema.Catalog
	store   cache.Store
	service *extract.Service
	invoker *invoke.Invoker
}

// newApp loads config and builds the service stack. Commands that only
// need the catalog or the cache use the same path; the unused pieces are
// cheap to construct.
func newApp(ctx context.Context) (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	catalog, err := schema.Load(h.CatalogPath())
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg, h)
	if err != nil {
		return nil, err
	}

	projector := projection.New(catalog)
	registry := providers.NewRegistry(projector, logger)
	registry.ApplyConfig(cfg.ToRegistryConfig())

	invoker := invoke.New(registry, store, logger)
	classifier := classify.New(catalog, invoker, logger)
	service := extract.New(catalog, invoker, classifier, logger)

	return &app{
		home:    h,
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		store:   store,
		service: service,
		invoker: invoker,
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config, h *home.Dir) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "", "filesystem":
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = h.CachePath()
		}
		return cache.NewFilesystem(dir)
	case "memory":
		return cache.NewMemory(), nil
	case "redis":
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: config.ResolveEnvVars(cfg.Redis.Password),
			DB:       cfg.Redis.DB,
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// manager returns the cache as a Manager, or an error when the backend
// does not support maintenance operations.
func (a *app) manager() (cache.Manager, error) {
	mgr, ok := a.store.(cache.Manager)
	if !ok || a.store == nil {
		return nil, fmt.Errorf("cache backend does not support this operation")
	}
	return mgr, nil
}

// extractOptions builds extract options from config plus flag overrides.
func (a *app) extractOptions(provider, model string, maxTokens int) extract.Options {
	opts := extract.Options{
		Provider:  a.cfg.Defaults.Provider,
		MaxTokens: a.cfg.Defaults.MaxTokens,
	}
	if provider != "" {
		opts.Provider = provider
	}
	if model != "" {
		opts.Model = model
	}
	if maxTokens > 0 {
		opts.MaxTokens = maxTokens
	}
	return opts
}

// batchConfig builds crawl settings from config plus flag overrides.
func (a *app) batchConfig(inputDir, outputDir, schemaKey string, workers int, opts extract.Options) batch.Config {
	cfg := batch.Config{
		InputDir:          inputDir,
		OutputDir:         outputDir,
		Schema:            schemaKey,
		Workers:           a.cfg.Batch.Workers,
		RequestsPerMinute: a.cfg.Batch.RequestsPerMinute,
		MaxAttempts:       a.cfg.Batch.MaxAttempts,
		Extract:           opts,
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = a.home.ResultsPath()
	}
	return cfg
}

// loadParts converts file arguments into content parts.
func loadParts(paths []string) ([]document.Part, error) {
	parts := make([]document.Part, 0, len(paths))
	for _, p := range paths {
		part, err := document.File(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}
