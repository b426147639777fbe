package app

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"translation-queue/internal/config"
	"translation-queue/internal/logger"
	"translation-queue/internal/ratelimit"
)

func baseConfig() config.Config {
	return config.Config{
		StoreBackend:      "memory",
		CMSBackend:        "memory",
		DefaultLanguage:   "en",
		Languages:         []string{"en", "fr"},
		RateLimitCapacity: 5,
		RateLimitRefill:   1,
	}
}

func TestNewMemoryBackends(t *testing.T) {
	cfg := baseConfig()
	cfg.ArchiveDir = t.TempDir()
	a, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if a.Queue == nil || a.Docs == nil {
		t.Fatalf("expected queue and docs wired")
	}
	if _, ok := a.Limiter.(*ratelimit.Local); !ok {
		t.Fatalf("expected local limiter without redis, got %T", a.Limiter)
	}
	jobs, err := a.Queue.List(context.Background())
	if err != nil || len(jobs) != 0 {
		t.Fatalf("expected empty queue, got %v %v", jobs, err)
	}
	if err := a.Queue.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestNewRedisAndSQLiteBackends(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := baseConfig()
	cfg.StoreBackend = "redis"
	cfg.RedisAddr = mr.Addr()
	a, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("new redis app: %v", err)
	}
	if _, ok := a.Limiter.(*ratelimit.TokenBucket); !ok {
		t.Fatalf("expected redis token bucket, got %T", a.Limiter)
	}
	a.Close()

	cfg = baseConfig()
	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "q.db")
	cfg.RateLimitCapacity = 0
	a, err = New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("new sqlite app: %v", err)
	}
	defer a.Close()
	if a.Limiter != nil {
		t.Fatalf("capacity 0 disables rate limiting")
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = "etcd"
	if _, err := New(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
