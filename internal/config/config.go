package config

import (
	"time"

	"github.com/IshaanNene/ChartGoat/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ChartGoat.
type Config struct {
	Browser     BrowserConfig     `mapstructure:"browser"     yaml:"browser"`
	Chart       ChartConfig       `mapstructure:"chart"       yaml:"chart"`
	Scroll      ScrollConfig      `mapstructure:"scroll"      yaml:"scroll"`
	Extract     ExtractConfig     `mapstructure:"extract"     yaml:"extract"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
	Output      OutputConfig      `mapstructure:"output"      yaml:"output"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
}

// BrowserConfig controls the headless Chromium session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	Bin               string        `mapstructure:"bin"                yaml:"bin"`
	Stealth           bool          `mapstructure:"stealth"            yaml:"stealth"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
	ViewportWidth     int           `mapstructure:"viewport_width"     yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height"    yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"       yaml:"settle_delay"`
	BlockResources    []string      `mapstructure:"block_resources"    yaml:"block_resources"`
}

// ChartConfig describes the chart site addresses.
type ChartConfig struct {
	URLTemplate string `mapstructure:"url_template" yaml:"url_template"`
	WatchBase   string `mapstructure:"watch_base"   yaml:"watch_base"`
	ChannelBase string `mapstructure:"channel_base" yaml:"channel_base"`
}

// ScrollConfig controls the lazy-load scroll driver.
type ScrollConfig struct {
	Strategy    string        `mapstructure:"strategy"     yaml:"strategy"` // rank, height
	Interval    time.Duration `mapstructure:"interval"     yaml:"interval"`
	TargetRank  int           `mapstructure:"target_rank"  yaml:"target_rank"`
	StallLimit  int           `mapstructure:"stall_limit"  yaml:"stall_limit"`
	MaxPolls    int           `mapstructure:"max_polls"    yaml:"max_polls"`
	Step        int           `mapstructure:"step"         yaml:"step"`
	Cooldown    time.Duration `mapstructure:"cooldown"     yaml:"cooldown"`
	FocusImages bool          `mapstructure:"focus_images" yaml:"focus_images"`
}

// ExtractConfig controls row retention.
type ExtractConfig struct {
	Policy     string `mapstructure:"policy"      yaml:"policy"` // strict, lenient
	MaxEntries int    `mapstructure:"max_entries" yaml:"max_entries"`
}

// DiagnosticsConfig controls debugging artifacts.
type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir"     yaml:"dir"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path"   yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: 90 * time.Second,
			SettleDelay:       5 * time.Second,
			BlockResources:    []string{"font", "media"},
		},
		Chart: ChartConfig{
			URLTemplate: types.DefaultURLTemplate,
			WatchBase:   "https://www.youtube.com/watch",
			ChannelBase: "https://www.youtube.com",
		},
		Scroll: ScrollConfig{
			Strategy:   "height",
			Interval:   500 * time.Millisecond,
			TargetRank: 200,
			StallLimit: 30,
			MaxPolls:   300,
			Step:       300,
			Cooldown:   2 * time.Second,
		},
		Extract: ExtractConfig{
			Policy:     "strict",
			MaxEntries: 200,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: true,
			Dir:     "./diagnostics",
		},
		Output: OutputConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Scroll settings that differ between the two heuristics.
var strategyDefaults = map[string]struct {
	Interval   time.Duration
	StallLimit int
	Step       int
}{
	"height": {Interval: 500 * time.Millisecond, StallLimit: 30, Step: 300},
	"rank":   {Interval: time.Second, StallLimit: 5, Step: 800},
}

// UseStrategy switches the scroll driver to the named heuristic and resets
// its interval, stall limit and step to that heuristic's defaults. Unknown
// names only set the strategy and are rejected by Validate.
func (c *Config) UseStrategy(name string) {
	c.Scroll.Strategy = name
	d, ok := strategyDefaults[name]
	if !ok {
		return
	}
	c.Scroll.Interval = d.Interval
	c.Scroll.StallLimit = d.StallLimit
	c.Scroll.Step = d.Step
}
