package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("CHARTGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("chartgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".chartgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is okay if not explicitly specified
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Keys the user left unset follow the chosen heuristic.
	if d, ok := strategyDefaults[strings.ToLower(v.GetString("scroll.strategy"))]; ok {
		v.SetDefault("scroll.interval", d.Interval)
		v.SetDefault("scroll.stall_limit", d.StallLimit)
		v.SetDefault("scroll.step", d.Step)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that env overrides are
// visible to Unmarshal even when no config file sets the key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.viewport_width", cfg.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", cfg.Browser.ViewportHeight)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.block_resources", cfg.Browser.BlockResources)

	v.SetDefault("chart.url_template", cfg.Chart.URLTemplate)
	v.SetDefault("chart.watch_base", cfg.Chart.WatchBase)
	v.SetDefault("chart.channel_base", cfg.Chart.ChannelBase)

	v.SetDefault("scroll.strategy", cfg.Scroll.Strategy)
	v.SetDefault("scroll.interval", cfg.Scroll.Interval)
	v.SetDefault("scroll.target_rank", cfg.Scroll.TargetRank)
	v.SetDefault("scroll.stall_limit", cfg.Scroll.StallLimit)
	v.SetDefault("scroll.max_polls", cfg.Scroll.MaxPolls)
	v.SetDefault("scroll.step", cfg.Scroll.Step)
	v.SetDefault("scroll.cooldown", cfg.Scroll.Cooldown)
	v.SetDefault("scroll.focus_images", cfg.Scroll.FocusImages)

	v.SetDefault("extract.policy", cfg.Extract.Policy)
	v.SetDefault("extract.max_entries", cfg.Extract.MaxEntries)

	v.SetDefault("diagnostics.enabled", cfg.Diagnostics.Enabled)
	v.SetDefault("diagnostics.dir", cfg.Diagnostics.Dir)

	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.path", cfg.Output.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
