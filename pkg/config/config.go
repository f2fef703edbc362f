// Package config loads llmux settings from ~/.llmux/config.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/persist"
)

// Drivers.
const (
	DriverPlaywright = "playwright"
	DriverCDP        = "cdp"
)

// State backends.
const (
	BackendFile = persist.BackendFile
	BackendBolt = persist.BackendBolt
)

// DefaultUserAgent is presented to every chat service.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var (
	ErrInvalidDriver  = errors.New("invalid browser driver")
	ErrInvalidBackend = errors.New("invalid state backend")
	ErrInvalidTiming  = errors.New("invalid timing")
)

// Config holds all settings.
type Config struct {
	Driver     string      `yaml:"driver"`
	Headless   bool        `yaml:"headless"`
	DataDir    string      `yaml:"data_dir"`
	UserAgent  string      `yaml:"user_agent"`
	ChromePath string      `yaml:"chrome_path"`
	State      StateConfig `yaml:"state"`
	Timing     Timing      `yaml:"timing"`
	Log        LogConfig   `yaml:"log"`
}

// StateConfig selects where tab layout is persisted.
type StateConfig struct {
	Backend string `yaml:"backend"`
	// Path defaults to <data_dir>/state.json or <data_dir>/state.db.
	Path string `yaml:"path"`
}

// Timing holds the delays of the dispatch and naming machinery.
type Timing struct {
	// TitleDebounce is the quiet period after the last title change before
	// a tab is auto-named.
	TitleDebounce time.Duration `yaml:"title_debounce"`
	// StatusGrace is how long per-platform results stay visible after a
	// dispatch before every status returns to idle.
	StatusGrace time.Duration `yaml:"status_grace"`
	// SettleDelay is the pause between typing and submitting in the page.
	SettleDelay time.Duration `yaml:"settle_delay"`
	// SendWarmup is how long `llmux send` lets fresh pages load before
	// dispatching.
	SendWarmup time.Duration `yaml:"send_warmup"`
}

// LogConfig controls the session log file.
type LogConfig struct {
	Level string `yaml:"level"`
	// Dir defaults to <data_dir>/logs.
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Driver:    DriverPlaywright,
		Headless:  false,
		DataDir:   defaultDataDir(),
		UserAgent: DefaultUserAgent,
		State: StateConfig{
			Backend: BackendFile,
		},
		Timing: Timing{
			TitleDebounce: 500 * time.Millisecond,
			StatusGrace:   3 * time.Second,
			SettleDelay:   500 * time.Millisecond,
			SendWarmup:    2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".llmux"
	}
	return filepath.Join(homeDir, ".llmux")
}

// Validate checks enumerations and durations.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPlaywright, DriverCDP:
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidDriver, c.Driver, DriverPlaywright, DriverCDP)
	}

	switch c.State.Backend {
	case BackendFile, BackendBolt:
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidBackend, c.State.Backend, BackendFile, BackendBolt)
	}

	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	timings := map[string]time.Duration{
		"title_debounce": c.Timing.TitleDebounce,
		"status_grace":   c.Timing.StatusGrace,
		"settle_delay":   c.Timing.SettleDelay,
		"send_warmup":    c.Timing.SendWarmup,
	}
	for name, d := range timings {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidTiming, name)
		}
	}
	return nil
}

// StatePath returns the configured state path or the backend default.
func (c *Config) StatePath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	return persist.DefaultPath(c.DataDir, c.State.Backend)
}

// LogDir returns the configured log directory or <data_dir>/logs.
func (c *Config) LogDir() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	return filepath.Join(c.DataDir, "logs")
}

// LogLevel returns the parsed log level. Validate rejects unknown names.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
