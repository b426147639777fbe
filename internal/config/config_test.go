package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultLanguage != "en" || cfg.ProviderModel != "gpt-4o-mini" || cfg.TickInterval != time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.TargetLanguages(); len(got) != 1 || got[0] != "nl" {
		t.Fatalf("expected target languages [nl], got %v", got)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "default_language: fr\nlanguages: [fr, DE, es]\nprovider_timeout: 30s\nstore_backend: sqlite\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("env should win over file, got %q", cfg.StoreBackend)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.ProviderTimeout)
	}
	if got := cfg.TargetLanguages(); len(got) != 2 || got[0] != "de" || got[1] != "es" {
		t.Fatalf("expected [de es], got %v", got)
	}
}

func TestDefaultLanguageAlwaysIncluded(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LANGUAGES", "fr,de")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	found := false
	for _, l := range cfg.Languages {
		if l == "en" {
			found = true
		}
	}
	if !found {
		t.Fatalf("default language missing from %v", cfg.Languages)
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cfg := defaults()
	cfg.Languages = []string{"en", "not a language!"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid language error")
	}
	cfg = defaults()
	cfg.StoreBackend = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestTargetLanguagesEmptyWhenOnlyDefault(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LANGUAGES", "en")
	t.Setenv("DEFAULT_LANGUAGE", "EN")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.TargetLanguages(); len(got) != 0 {
		t.Fatalf("expected no target languages, got %v", got)
	}
}
