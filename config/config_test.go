package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.PreviewPercent != 0.30 || cfg.PreviewMinSeconds != 15 || cfg.PreviewMaxSeconds != 60 {
		t.Errorf("preview defaults = %v/%v/%v", cfg.PreviewPercent, cfg.PreviewMinSeconds, cfg.PreviewMaxSeconds)
	}
	if cfg.CacheMaxBytes != 2<<30 {
		t.Errorf("CacheMaxBytes = %d", cfg.CacheMaxBytes)
	}
	if cfg.PlayDedupWindow() != 30*time.Minute {
		t.Errorf("PlayDedupWindow = %v", cfg.PlayDedupWindow())
	}
	if cfg.FetchInitialBackoff != 200*time.Millisecond {
		t.Errorf("FetchInitialBackoff = %v", cfg.FetchInitialBackoff)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PREVIEW_PERCENT", "0.5")
	t.Setenv("CACHE_DIRECTORY", "/tmp/objs")
	t.Setenv("PLAY_DEDUP_WINDOW_SECONDS", "60")
	t.Setenv("STORAGE_PROVIDER", "local")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.PreviewPercent != 0.5 {
		t.Errorf("PreviewPercent = %v", cfg.PreviewPercent)
	}
	if cfg.CacheDirectory != "/tmp/objs" {
		t.Errorf("CacheDirectory = %q", cfg.CacheDirectory)
	}
	if cfg.PlayDedupWindow() != time.Minute {
		t.Errorf("PlayDedupWindow = %v", cfg.PlayDedupWindow())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"percent zero", func(c *Config) { c.PreviewPercent = 0 }},
		{"percent above one", func(c *Config) { c.PreviewPercent = 1.5 }},
		{"min above max", func(c *Config) { c.PreviewMinSeconds = 90 }},
		{"zero cache cap", func(c *Config) { c.CacheMaxBytes = 0 }},
		{"zero dedup window", func(c *Config) { c.PlayDedupWindowSeconds = 0 }},
		{"zero attempts", func(c *Config) { c.FetchMaxAttempts = 0 }},
		{"unknown provider", func(c *Config) { c.StorageProvider = "ftp" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse()
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
