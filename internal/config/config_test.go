package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "WORKER_COUNT", "JOB_TTL", "REFINE_PROVIDER"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.StoreBackend)
	}
	if cfg.WorkerCount != 2 || cfg.JobTTL != time.Hour {
		t.Errorf("unexpected pool defaults: workers=%d ttl=%v", cfg.WorkerCount, cfg.JobTTL)
	}
	if cfg.RefineProvider != "none" {
		t.Errorf("expected refine provider none, got %q", cfg.RefineProvider)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "lots")
	t.Setenv("MAX_QUEUE_SIZE", "-3")
	t.Setenv("JOB_TTL", "soon")
	cfg := Load()
	if cfg.WorkerCount != 2 || cfg.MaxQueueSize != 20 || cfg.JobTTL != time.Hour {
		t.Errorf("expected defaults for invalid values, got %d/%d/%v", cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL)
	}
}

func validConfig() Config {
	return Config{FigopsAPIKey: "k", StoreBackend: "sqlite", SQLitePath: "x.db", RefineProvider: "none"}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*Config){
		"missing api key":       func(c *Config) { c.FigopsAPIKey = "" },
		"unknown backend":       func(c *Config) { c.StoreBackend = "redis" },
		"pathstore without key": func(c *Config) { c.StoreBackend = "pathstore" },
		"claude without key":    func(c *Config) { c.RefineProvider = "claude" },
		"openai without key":    func(c *Config) { c.RefineProvider = "openai" },
		"unknown provider":      func(c *Config) { c.RefineProvider = "llama" },
		"schedule without key":  func(c *Config) { c.SyncSchedule = "@hourly"; c.FigmaToken = "t" },
		"schedule without token": func(c *Config) {
			c.SyncSchedule = "@hourly"
			c.FigmaFileKey = "abc"
		},
	}
	for name, mutate := range cases {
		c := validConfig()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestRefineKey(t *testing.T) {
	c := Config{RefineProvider: "OpenAI", OpenAIAPIKey: "sk", OpenAIModel: "gpt-4o", AnthropicAPIKey: "ak"}
	if key, model := c.RefineKey(); key != "sk" || model != "gpt-4o" {
		t.Errorf("expected openai key/model, got %q/%q", key, model)
	}
	c.RefineProvider = "none"
	if key, _ := c.RefineKey(); key != "" {
		t.Errorf("expected no key for none, got %q", key)
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	} {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("LogLevel %q: expected %v, got %v", in, want, got)
		}
	}
}

func TestCatalog(t *testing.T) {
	cat, err := Config{}.Catalog()
	if err != nil || len(cat.ScreenID) == 0 {
		t.Fatalf("expected built-in catalog, got %+v, %v", cat, err)
	}

	path := filepath.Join(t.TempDir(), "labels.yaml")
	if err := os.WriteFile(path, []byte("screen_id: [\"Page Code\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err = Config{LabelCatalog: path}.Catalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.ScreenID) != 1 || cat.ScreenID[0] != "Page Code" {
		t.Errorf("expected overridden screen id labels, got %v", cat.ScreenID)
	}

	if _, err := (Config{LabelCatalog: filepath.Join(t.TempDir(), "missing.yaml")}).Catalog(); err == nil {
		t.Error("expected error for missing catalog file")
	}
}
