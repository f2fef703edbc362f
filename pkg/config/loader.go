package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns ~/.llmux/config.yaml, or "" when the home directory
// is unknown.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".llmux", "config.yaml")
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error. An empty path
// uses DefaultPath.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			// Config file is optional, don't fail if it doesn't exist
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.State.Path = expandHome(cfg.State.Path)
	cfg.Log.Dir = expandHome(cfg.Log.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv applies LLMUX_* overrides.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("LLMUX_DRIVER"); v != "" {
		cfg.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("LLMUX_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LLMUX_HEADLESS %q: %w", v, err)
		}
		cfg.Headless = b
	}
	if v := os.Getenv("LLMUX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LLMUX_STATE_BACKEND"); v != "" {
		cfg.State.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("LLMUX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
