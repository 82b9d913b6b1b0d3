package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Claude generation; disabled when the key is empty
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Template archive; disabled when the URL is empty
	ArchiveURL    string
	ArchiveAPIKey string

	// Optional YAML overrides
	PatternsFile string
	EngineFile   string
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCFILL_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		ArchiveURL:    os.Getenv("ARCHIVE_URL"),
		ArchiveAPIKey: os.Getenv("ARCHIVE_API_KEY"),

		PatternsFile: os.Getenv("PATTERNS_FILE"),
		EngineFile:   os.Getenv("ENGINE_FILE"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// GenerationEnabled reports whether topic-based generation is configured.
func (c Config) GenerationEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// ArchiveEnabled reports whether the template archive is configured.
func (c Config) ArchiveEnabled() bool {
	return c.ArchiveURL != ""
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var err error
	if c.APIKey == "" {
		err = multierr.Append(err, errors.New("DOCFILL_API_KEY is required"))
	}
	if c.ArchiveURL != "" && c.ArchiveAPIKey == "" {
		err = multierr.Append(err, errors.New("ARCHIVE_API_KEY is required when ARCHIVE_URL is set"))
	}
	for _, f := range []struct{ env, path string }{
		{"PATTERNS_FILE", c.PatternsFile},
		{"ENGINE_FILE", c.EngineFile},
	} {
		if f.path == "" {
			continue
		}
		if _, statErr := os.Stat(f.path); statErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", f.env, statErr))
		}
	}
	return err
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
