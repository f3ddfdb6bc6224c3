package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/vnode"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CENTER_MARKER", "")
	t.Setenv("MAX_DEPTH", "")
	t.Setenv("SETTLE_DELAY", "")
	t.Setenv("COLLAPSE_TEXT", "")

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %s", cfg.Port)
	}
	if cfg.CenterMarker != "text-center" {
		t.Errorf("expected default center marker, got %q", cfg.CenterMarker)
	}
	if cfg.MaxDepth != skeleton.DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", skeleton.DefaultMaxDepth, cfg.MaxDepth)
	}
	if !cfg.CollapseText {
		t.Error("expected text collapse on by default")
	}
	if cfg.SettleDelay != 0 {
		t.Errorf("expected no settle delay, got %s", cfg.SettleDelay)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("JOB_TTL", "5m")
	t.Setenv("SETTLE_DELAY", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("COLLAPSE_TEXT", "false")
	t.Setenv("MAX_UPLOAD_BYTES", "junk")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("expected 5m job TTL, got %s", cfg.JobTTL)
	}
	if cfg.SettleDelay != 3*time.Second {
		t.Errorf("expected 3s settle delay, got %s", cfg.SettleDelay)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("expected redis db 2, got %d", cfg.RedisDB)
	}
	if cfg.CollapseText {
		t.Error("expected text collapse off")
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("expected unparseable upload limit to use default, got %d", cfg.MaxUploadBytes)
	}
}

func TestValidate(t *testing.T) {
	base := Config{APIKey: "k", CenterMarker: "text-center", LogFormat: "json"}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]func(*Config){
		"missing key":    func(c *Config) { c.APIKey = "" },
		"two tokens":     func(c *Config) { c.CenterMarker = "text-center mx-auto" },
		"empty marker":   func(c *Config) { c.CenterMarker = "" },
		"unknown format": func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range tests {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSkeletonOptions_StyleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	yaml := "center_marker: centered\ntags:\n  h1: hero-bar\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{CenterMarker: "text-center", CollapseText: true, MaxDepth: 16, StyleTablePath: path}
	opts, err := cfg.SkeletonOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := skeleton.New(opts...)
	if tr.CenterMarker() != "centered" {
		t.Errorf("expected file marker to win, got %q", tr.CenterMarker())
	}
	if class, ok := tr.Styles().Lookup("h1"); !ok || class != "hero-bar" {
		t.Errorf("expected h1 from file, got %q", class)
	}
	if _, ok := tr.Styles().Lookup("p"); ok {
		t.Error("expected file table to replace the defaults")
	}

	out, _ := tr.Transform(vnode.Element("h1", nil))
	if !out.HasClass("hero-bar") {
		t.Errorf("expected placeholder to use file class, got %q", out.Class())
	}
}

func TestSkeletonOptions_MissingFile(t *testing.T) {
	cfg := Config{StyleTablePath: filepath.Join(t.TempDir(), "nope.yaml")}
	if _, err := cfg.SkeletonOptions(); err == nil {
		t.Error("expected error for missing style file")
	}
}
