package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"filingest/internal/secquery"
)

type Config struct {
	Port string

	// Auth
	FilingestAPIKey string

	// SEC filing discovery
	SECAPIKey     string
	SECAPIBaseURL string

	// Gemini models
	GeminiAPIKey    string
	StructureModel  string
	ExtractionModel string

	// Chunking
	MaxPagesPerChunk int

	// Concurrency
	Concurrency          int
	MaxConcurrentExtract int

	// Fetching
	FetchTimeout time.Duration
	UserAgent    string

	// Batch state
	BatchTTL         time.Duration
	MaxTasksPerBatch int

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		FilingestAPIKey: os.Getenv("FILINGEST_API_KEY"),

		SECAPIKey:     os.Getenv("SEC_API_KEY"),
		SECAPIBaseURL: envOr("SEC_API_BASE_URL", secquery.DefaultBaseURL),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		StructureModel:  envOr("STRUCTURE_MODEL", "gemini-2.0-flash"),
		ExtractionModel: envOr("EXTRACTION_MODEL", "gemini-2.5-pro"),

		MaxPagesPerChunk: envInt("MAX_PAGES_PER_CHUNK", 8),

		Concurrency:          envInt("CONCURRENCY", 4),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 2),

		FetchTimeout: envDuration("FETCH_TIMEOUT", 60*time.Second),
		UserAgent:    envOr("SEC_USER_AGENT", "filingest research tool (contact@example.com)"),

		BatchTTL:         envDuration("BATCH_TTL", 24*time.Hour),
		MaxTasksPerBatch: envInt("MAX_TASKS_PER_BATCH", 64),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxPagesPerChunk <= 0 {
		cfg.MaxPagesPerChunk = 8
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 2
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	if cfg.BatchTTL <= 0 {
		cfg.BatchTTL = 24 * time.Hour
	}
	if cfg.MaxTasksPerBatch <= 0 {
		cfg.MaxTasksPerBatch = 64
	}

	return cfg
}

func (c Config) Validate() error {
	if c.FilingestAPIKey == "" {
		return fmt.Errorf("FILINGEST_API_KEY is required")
	}
	if c.SECAPIKey == "" {
		return fmt.Errorf("SEC_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
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
