package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestRankStrategyDefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseStrategy("rank")
	if err := Validate(cfg); err != nil {
		t.Fatalf("rank strategy config invalid: %v", err)
	}
	if cfg.Scroll.StallLimit != 5 || cfg.Scroll.Interval != time.Second || cfg.Scroll.Step != 800 {
		t.Errorf("unexpected rank defaults: %+v", cfg.Scroll)
	}

	cfg.UseStrategy("height")
	if cfg.Scroll.StallLimit != 30 || cfg.Scroll.Interval != 500*time.Millisecond || cfg.Scroll.Step != 300 {
		t.Errorf("unexpected height defaults: %+v", cfg.Scroll)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nav timeout", func(c *Config) { c.Browser.NavigationTimeout = 0 }},
		{"unknown strategy", func(c *Config) { c.Scroll.Strategy = "spiral" }},
		{"zero max polls", func(c *Config) { c.Scroll.MaxPolls = 0 }},
		{"template without period", func(c *Config) { c.Chart.URLTemplate = "https://x/{category}/{country}" }},
		{"relative watch base", func(c *Config) { c.Chart.WatchBase = "/watch" }},
		{"unknown policy", func(c *Config) { c.Extract.Policy = "any" }},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }},
		{"unknown resource", func(c *Config) { c.Browser.BlockResources = []string{"script"} }},
		{"diagnostics without dir", func(c *Config) { c.Diagnostics.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chartgoat.yaml")
	yaml := `
scroll:
  strategy: rank
  target_rank: 50
  interval: 250ms
extract:
  policy: lenient
output:
  format: csv
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Scroll.Strategy != "rank" {
		t.Errorf("expected rank strategy, got %q", cfg.Scroll.Strategy)
	}
	if cfg.Scroll.TargetRank != 50 {
		t.Errorf("expected target rank 50, got %d", cfg.Scroll.TargetRank)
	}
	if cfg.Scroll.Interval != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %s", cfg.Scroll.Interval)
	}
	if cfg.Extract.Policy != "lenient" {
		t.Errorf("expected lenient policy, got %q", cfg.Extract.Policy)
	}
	// Untouched keys keep their defaults.
	if cfg.Browser.NavigationTimeout != 90*time.Second {
		t.Errorf("expected default nav timeout, got %s", cfg.Browser.NavigationTimeout)
	}
}

func TestLoadRankStrategyFromFileUsesRankDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartgoat.yaml")
	if err := os.WriteFile(path, []byte("scroll:\n  strategy: rank\n  step: 600\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scroll.Interval != time.Second {
		t.Errorf("expected 1s interval, got %s", cfg.Scroll.Interval)
	}
	if cfg.Scroll.StallLimit != 5 {
		t.Errorf("expected stall limit 5, got %d", cfg.Scroll.StallLimit)
	}
	if cfg.Scroll.Step != 600 {
		t.Errorf("expected explicit step 600 to win, got %d", cfg.Scroll.Step)
	}
}

func TestLoadRankStrategyFromEnvUsesRankDefaults(t *testing.T) {
	t.Setenv("CHARTGOAT_SCROLL_STRATEGY", "rank")
	path := filepath.Join(t.TempDir(), "chartgoat.yaml")
	if err := os.WriteFile(path, []byte("output:\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scroll.Strategy != "rank" || cfg.Scroll.Interval != time.Second || cfg.Scroll.StallLimit != 5 || cfg.Scroll.Step != 800 {
		t.Errorf("unexpected scroll config %+v", cfg.Scroll)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
