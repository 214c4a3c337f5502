// internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Control ControlConfig `mapstructure:"control" yaml:"control"`
}

// LoggerConfig configures the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	// LogFile, when set, adds a JSON file sink rotated by lumberjack.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig configures the chromedp-backed page session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ScreenshotDir is where screenshot micro-actions write captures.
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// EngineConfig configures the scenario execution engine.
type EngineConfig struct {
	// SlowMode doubles every resolved duration.
	SlowMode bool `mapstructure:"slow_mode" yaml:"slow_mode"`
	// FrameRate is the pointer animation step rate in frames per second.
	FrameRate int `mapstructure:"frame_rate" yaml:"frame_rate"`
	// TransitionTimeout bounds the wait for an expected page change.
	TransitionTimeout time.Duration `mapstructure:"transition_timeout" yaml:"transition_timeout"`
	// TransitionPoll is the polling interval during a transition wait.
	TransitionPoll time.Duration `mapstructure:"transition_poll" yaml:"transition_poll"`
}

// ControlConfig configures the HTTP/websocket control server.
type ControlConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// RateLimit is the sustained command rate per second; RateBurst the burst.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// SetDefaults installs the default configuration values into viper. Called
// before ReadInConfig so file and env values override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "drover")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.screenshot_dir", "screenshots")

	v.SetDefault("engine.slow_mode", false)
	v.SetDefault("engine.frame_rate", 60)
	v.SetDefault("engine.transition_timeout", 10*time.Second)
	v.SetDefault("engine.transition_poll", 500*time.Millisecond)

	v.SetDefault("control.addr", "127.0.0.1:8457")
	v.SetDefault("control.rate_limit", 10.0)
	v.SetDefault("control.rate_burst", 20)
}

// Load reads configuration from the given file (or the default search
// locations when empty), applies environment overrides with the DROVER
// prefix, and unmarshals the result.
func Load(cfgFile string) (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".drover"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DROVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without consulting files or the
// environment. Used by tests and as a fallback.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshal from defaults cannot fail: the keys mirror the struct tags.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
