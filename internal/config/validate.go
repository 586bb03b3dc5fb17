package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}
	if cfg.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must be >= 0")
	}
	if cfg.Browser.ViewportWidth < 1 || cfg.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d",
			cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	validResources := map[string]bool{
		"font": true, "media": true, "image": true, "stylesheet": true,
	}
	for _, r := range cfg.Browser.BlockResources {
		if !validResources[r] {
			return fmt.Errorf("browser.block_resources: unsupported resource type %q", r)
		}
	}

	for _, slot := range []string{"{category}", "{country}", "{period}"} {
		if !strings.Contains(cfg.Chart.URLTemplate, slot) {
			return fmt.Errorf("chart.url_template must contain %s", slot)
		}
	}
	if err := ValidateURL(cfg.Chart.WatchBase); err != nil {
		return fmt.Errorf("chart.watch_base: %w", err)
	}
	if err := ValidateURL(cfg.Chart.ChannelBase); err != nil {
		return fmt.Errorf("chart.channel_base: %w", err)
	}

	if cfg.Scroll.Strategy != "rank" && cfg.Scroll.Strategy != "height" {
		return fmt.Errorf("scroll.strategy must be 'rank' or 'height', got %q", cfg.Scroll.Strategy)
	}
	if cfg.Scroll.Interval <= 0 {
		return fmt.Errorf("scroll.interval must be > 0")
	}
	if cfg.Scroll.MaxPolls < 1 {
		return fmt.Errorf("scroll.max_polls must be >= 1, got %d", cfg.Scroll.MaxPolls)
	}
	if cfg.Scroll.StallLimit < 1 {
		return fmt.Errorf("scroll.stall_limit must be >= 1, got %d", cfg.Scroll.StallLimit)
	}
	if cfg.Scroll.Step < 1 {
		return fmt.Errorf("scroll.step must be >= 1, got %d", cfg.Scroll.Step)
	}
	if cfg.Scroll.Strategy == "rank" && cfg.Scroll.TargetRank < 1 {
		return fmt.Errorf("scroll.target_rank must be >= 1, got %d", cfg.Scroll.TargetRank)
	}
	if cfg.Scroll.Cooldown < 0 {
		return fmt.Errorf("scroll.cooldown must be >= 0")
	}

	if cfg.Extract.Policy != "strict" && cfg.Extract.Policy != "lenient" {
		return fmt.Errorf("extract.policy must be 'strict' or 'lenient', got %q", cfg.Extract.Policy)
	}
	if cfg.Extract.MaxEntries < 0 {
		return fmt.Errorf("extract.max_entries must be >= 0, got %d", cfg.Extract.MaxEntries)
	}

	if cfg.Diagnostics.Enabled && cfg.Diagnostics.Dir == "" {
		return fmt.Errorf("diagnostics.dir must be set when diagnostics are enabled")
	}

	validFormats := map[string]bool{
		"table": true, "json": true, "jsonl": true, "csv": true,
	}
	if !validFormats[cfg.Output.Format] {
		return fmt.Errorf("output.format %q is not supported (valid: table, json, jsonl, csv)", cfg.Output.Format)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks that a base URL is absolute http(s).
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
