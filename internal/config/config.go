package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/figops/internal/screens"
)

type Config struct {
	Port string

	// Auth
	FigopsAPIKey string

	// Figma source
	FigmaToken   string
	FigmaAPIURL  string
	FigmaFileKey string
	SyncSchedule string

	// Label catalog override (.yaml, .yml or .toml)
	LabelCatalog string

	// Description refinement
	RefineProvider      string
	AnthropicAPIKey     string
	AnthropicModel      string
	OpenAIAPIKey        string
	OpenAIModel         string
	MaxConcurrentRefine int

	// Plan store
	StoreBackend    string
	SQLitePath      string
	PathstoreURL    string
	PathstoreAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		FigopsAPIKey: os.Getenv("FIGOPS_API_KEY"),

		FigmaToken:   os.Getenv("FIGMA_TOKEN"),
		FigmaAPIURL:  envOr("FIGMA_API_URL", "https://api.figma.com"),
		FigmaFileKey: os.Getenv("FIGMA_FILE_KEY"),
		SyncSchedule: os.Getenv("SYNC_SCHEDULE"),

		LabelCatalog: os.Getenv("LABEL_CATALOG"),

		RefineProvider:      envOr("REFINE_PROVIDER", "none"),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:      os.Getenv("ANTHROPIC_MODEL"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         os.Getenv("OPENAI_MODEL"),
		MaxConcurrentRefine: envInt("MAX_CONCURRENT_REFINE", 4),

		StoreBackend:    strings.ToLower(envOr("STORE_BACKEND", "sqlite")),
		SQLitePath:      envOr("SQLITE_PATH", "data/figops.db"),
		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxConcurrentRefine <= 0 {
		cfg.MaxConcurrentRefine = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.FigopsAPIKey == "" {
		return fmt.Errorf("FIGOPS_API_KEY is required")
	}
	switch c.StoreBackend {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case "pathstore":
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (supported: sqlite, pathstore)", c.StoreBackend)
	}
	switch strings.ToLower(c.RefineProvider) {
	case "", "none":
	case "claude", "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for REFINE_PROVIDER=%s", c.RefineProvider)
		}
	case "openai", "gpt":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for REFINE_PROVIDER=%s", c.RefineProvider)
		}
	default:
		return fmt.Errorf("unknown REFINE_PROVIDER %q (supported: none, claude, openai)", c.RefineProvider)
	}
	if c.SyncSchedule != "" {
		if c.FigmaFileKey == "" {
			return fmt.Errorf("FIGMA_FILE_KEY is required when SYNC_SCHEDULE is set")
		}
		if c.FigmaToken == "" {
			return fmt.Errorf("FIGMA_TOKEN is required when SYNC_SCHEDULE is set")
		}
	}
	return nil
}

// RefineKey returns the API key and model for the configured provider.
func (c Config) RefineKey() (apiKey, model string) {
	switch strings.ToLower(c.RefineProvider) {
	case "claude", "anthropic":
		return c.AnthropicAPIKey, c.AnthropicModel
	case "openai", "gpt":
		return c.OpenAIAPIKey, c.OpenAIModel
	}
	return "", ""
}

// Catalog returns the label catalog: the file named by LABEL_CATALOG, or
// the built-in one.
func (c Config) Catalog() (screens.Catalog, error) {
	if c.LabelCatalog == "" {
		return screens.DefaultCatalog(), nil
	}
	cat, err := screens.LoadCatalog(c.LabelCatalog)
	if err != nil {
		return screens.Catalog{}, fmt.Errorf("label catalog: %w", err)
	}
	return cat, nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
