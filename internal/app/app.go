// Package app assembles the queue and its collaborators from configuration.
// The API server, the worker and the transq CLI all start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"translation-queue/internal/archive"
	"translation-queue/internal/cms"
	"translation-queue/internal/config"
	"translation-queue/internal/duplicator"
	"translation-queue/internal/logger"
	"translation-queue/internal/provider"
	"translation-queue/internal/queue"
	"translation-queue/internal/ratelimit"
	"translation-queue/internal/store"
)

type App struct {
	Config  config.Config
	Log     *logger.Logger
	Queue   *queue.Queue
	Docs    cms.Store
	Limiter ratelimit.Limiter

	closers []func() error
}

// New opens the configured backends. Close releases them.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	var (
		qs  store.QueueStore
		pg  *store.Postgres
		rds *store.Redis
	)
	openPostgres := func() (*store.Postgres, error) {
		if pg != nil {
			return pg, nil
		}
		p, err := store.NewPostgres(ctx, cfg.PostgresDSN, cfg.QueueKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		if err := p.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pg = p
		return p, nil
	}

	switch cfg.StoreBackend {
	case "memory":
		qs = store.NewMemory()
	case "redis":
		rds = store.NewRedis(store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.QueueKey,
		})
		a.closers = append(a.closers, rds.Close)
		if err := rds.Client().Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		qs = rds
	case "postgres":
		p, err := openPostgres()
		if err != nil {
			return err
		}
		qs = p
	case "sqlite":
		s, err := store.NewSQLite(cfg.SQLitePath, cfg.QueueKey)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		qs = s
	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.CMSBackend {
	case "memory":
		mem := cms.NewMemory()
		if cfg.CMSSeedFile != "" {
			n, err := mem.LoadSeed(cfg.CMSSeedFile)
			if err != nil {
				return err
			}
			a.Log.Info("seeded memory cms", "documents", n, "file", cfg.CMSSeedFile)
		}
		a.Docs = mem
	case "postgres":
		p, err := openPostgres()
		if err != nil {
			return err
		}
		a.Docs = cms.NewPostgres(p.Pool())
	default:
		return fmt.Errorf("unknown cms backend %q", cfg.CMSBackend)
	}

	if cfg.ProviderAPIKey == "" {
		a.Log.Warn("PROVIDER_API_KEY is empty, translations will fail")
	}
	translator := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:  cfg.ProviderAPIKey,
		BaseURL: cfg.ProviderBaseURL,
		Model:   cfg.ProviderModel,
		Timeout: cfg.ProviderTimeout,
	})
	engine := duplicator.New(a.Docs, translator, cfg.DefaultLanguage, a.Log)

	opts := queue.Options{
		StaleRunningAfter: cfg.StaleRunningAfter,
		DefaultLanguage:   cfg.DefaultLanguage,
		TargetLanguages:   cfg.TargetLanguages(),
	}
	arch, err := archive.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if arch != nil {
		opts.Archiver = arch
	}
	a.Queue = queue.New(qs, a.Docs, engine, a.Log, opts)

	if cfg.RateLimitCapacity > 0 {
		if rds != nil {
			a.Limiter = ratelimit.NewTokenBucket(rds.Client(), cfg.RateLimitCapacity, cfg.RateLimitRefill, time.Hour)
		} else {
			a.Limiter = ratelimit.NewLocal(cfg.RateLimitCapacity, cfg.RateLimitRefill)
		}
	}

	a.Log.Info("backends ready",
		"store", cfg.StoreBackend,
		"cms", cfg.CMSBackend,
		"languages", cfg.TargetLanguages(),
		"archive", arch != nil,
	)
	return nil
}

// Close releases backends in reverse opening order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close backend", "error", err.Error())
		}
	}
	a.closers = nil
}
