// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix viper uses for environment overrides (ZYCLICKER_AUTOMATION_SETTLE_MS, ...).
const EnvPrefix = "ZYCLICKER"

// DefaultSettleMs mirrors the menu's default "Sleep Time" value.
const DefaultSettleMs = 400

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Automation AutomationConfig `mapstructure:"automation" yaml:"automation"`
	Matcher    MatcherConfig    `mapstructure:"matcher" yaml:"matcher"`
	Report     ReportConfig     `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driving the quiz page.
type BrowserConfig struct {
	// Headless is off by default: the book normally requires an interactive login.
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// UserDataDir keeps the login session between runs. Supports "~".
	UserDataDir       string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent         string         `mapstructure:"user_agent" yaml:"user_agent"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	LaunchTimeout     time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// ViewportConfig is the emulated window size. Zero values leave the window alone.
type ViewportConfig struct {
	Width  int64 `mapstructure:"width" yaml:"width"`
	Height int64 `mapstructure:"height" yaml:"height"`
}

// AutomationConfig controls which behaviors run and at what pacing.
type AutomationConfig struct {
	Animations     bool `mapstructure:"animations" yaml:"animations"`
	DragAndDrop    bool `mapstructure:"drag_and_drop" yaml:"drag_and_drop"`
	MultipleChoice bool `mapstructure:"multiple_choice" yaml:"multiple_choice"`
	ShortAnswers   bool `mapstructure:"short_answers" yaml:"short_answers"`
	// SettleMs is the pause after every page action, in milliseconds.
	SettleMs     int           `mapstructure:"settle_ms" yaml:"settle_ms"`
	PlayInterval time.Duration `mapstructure:"play_interval" yaml:"play_interval"`
	// AnimationTimeout bounds the play loop in unattended runs. Zero means until interrupted.
	AnimationTimeout time.Duration `mapstructure:"animation_timeout" yaml:"animation_timeout"`
}

// Settle returns SettleMs as a duration.
func (a AutomationConfig) Settle() time.Duration {
	return time.Duration(a.SettleMs) * time.Millisecond
}

// MatcherConfig tunes the drag-and-drop discoverer.
type MatcherConfig struct {
	// AmbiguousRetries is how many times an unrecognized feedback read is
	// re-read (after another settle pause) before it counts as incorrect.
	AmbiguousRetries int `mapstructure:"ambiguous_retries" yaml:"ambiguous_retries"`
}

// ReportConfig controls the optional run report. An empty path disables it;
// "stdout" writes to standard output.
type ReportConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "zyclicker")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_data_dir", "~/.zyclicker/profile")
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Automation --
	v.SetDefault("automation.animations", true)
	v.SetDefault("automation.drag_and_drop", true)
	v.SetDefault("automation.multiple_choice", true)
	v.SetDefault("automation.short_answers", true)
	v.SetDefault("automation.settle_ms", DefaultSettleMs)
	v.SetDefault("automation.play_interval", "500ms")
	v.SetDefault("automation.animation_timeout", "5m")

	// -- Matcher --
	v.SetDefault("matcher.ambiguous_retries", 0)

	// -- Report --
	v.SetDefault("report.path", "")
	v.SetDefault("report.format", "yaml")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ExpandPaths resolves a leading "~" in every path setting.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Browser.UserDataDir, &c.Report.Path, &c.Logger.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.Automation.Validate(); err != nil {
		return fmt.Errorf("automation configuration invalid: %w", err)
	}
	if c.Matcher.AmbiguousRetries < 0 {
		return fmt.Errorf("matcher.ambiguous_retries must not be negative")
	}
	switch c.Report.Format {
	case "yaml", "json":
	default:
		return fmt.Errorf("report.format must be yaml or json, got %q", c.Report.Format)
	}
	if c.Browser.LaunchTimeout <= 0 {
		return fmt.Errorf("browser.launch_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the AutomationConfig settings.
func (a *AutomationConfig) Validate() error {
	if a.SettleMs < 0 {
		return fmt.Errorf("settle_ms must not be negative")
	}
	if a.PlayInterval <= 0 {
		return fmt.Errorf("play_interval must be a positive duration")
	}
	if a.AnimationTimeout < 0 {
		return fmt.Errorf("animation_timeout must not be negative")
	}
	return nil
}
