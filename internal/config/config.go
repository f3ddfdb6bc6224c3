package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/skelgen/internal/skeleton"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Skeleton transformer
	CenterMarker   string
	StyleTablePath string
	CollapseText   bool
	MaxDepth       int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL      time.Duration
	ResultTTL   time.Duration
	SettleDelay time.Duration

	// Redis result store; empty address keeps results in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// PDF
	PDFFallbackPdftotext bool

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SKELGEN_API_KEY"),

		CenterMarker:   envOr("CENTER_MARKER", skeleton.DefaultCenterMarker),
		StyleTablePath: os.Getenv("STYLE_TABLE_PATH"),
		CollapseText:   envBool("COLLAPSE_TEXT", true),
		MaxDepth:       envInt("MAX_DEPTH", skeleton.DefaultMaxDepth),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		ResultTTL:   envDuration("RESULT_TTL", 1*time.Hour),
		SettleDelay: envDuration("SETTLE_DELAY", 0),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
	}

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = skeleton.DefaultMaxDepth
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 1 * time.Hour
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SKELGEN_API_KEY is required")
	}
	if len(strings.Fields(c.CenterMarker)) != 1 {
		return fmt.Errorf("CENTER_MARKER must be a single class token, got %q", c.CenterMarker)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// SkeletonOptions turns the transformer settings into skeleton options,
// reading the style file when one is configured. A center marker in the
// file wins over CENTER_MARKER.
func (c Config) SkeletonOptions() ([]skeleton.Option, error) {
	opts := []skeleton.Option{
		skeleton.WithCenterMarker(c.CenterMarker),
		skeleton.WithTextCollapse(c.CollapseText),
		skeleton.WithMaxDepth(c.MaxDepth),
	}
	if c.StyleTablePath == "" {
		return opts, nil
	}

	f, err := os.Open(c.StyleTablePath)
	if err != nil {
		return nil, fmt.Errorf("open style table: %w", err)
	}
	defer f.Close()

	sf, err := skeleton.LoadStyleFile(f)
	if err != nil {
		return nil, fmt.Errorf("load style table %s: %w", c.StyleTablePath, err)
	}
	opts = append(opts, skeleton.WithStyleTable(sf.Tags))
	if sf.CenterMarker != "" {
		opts = append(opts, skeleton.WithCenterMarker(sf.CenterMarker))
	}
	return opts, nil
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
