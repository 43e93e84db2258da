package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// Views the TUI can start in
const (
	ViewTable = "table"
	ViewBoard = "board"
)

// Config holds the unified application configuration
type Config struct {
	DataDir              string
	DefaultView          string
	DebounceMS           int
	UploadTimeoutSeconds int
}

// Settings represents the config file structure
type Settings struct {
	DataDir              string `json:"data_dir,omitempty"`
	DefaultView          string `json:"default_view,omitempty"`
	DebounceMS           int    `json:"debounce_ms,omitempty"`
	UploadTimeoutSeconds int    `json:"upload_timeout_seconds,omitempty"`
}

// CLIFlags holds parsed CLI flags
type CLIFlags struct {
	DataDir string
	View    string
}

var globalConfig *Config

// Load loads configuration with priority: CLI flags > env vars > config file > default
func Load(flags CLIFlags) (*Config, error) {
	cfg := &Config{
		DefaultView:          ViewTable,
		DebounceMS:           400,
		UploadTimeoutSeconds: 120,
	}

	// Config file first for base values
	if configPath, err := getConfigPath(); err == nil {
		fileConfig, err := loadConfigFile(configPath)
		switch {
		case err == nil:
			if fileConfig.DataDir != "" {
				cfg.DataDir = expandPath(fileConfig.DataDir)
			}
			if fileConfig.DefaultView != "" {
				cfg.DefaultView = fileConfig.DefaultView
			}
			if fileConfig.DebounceMS > 0 {
				cfg.DebounceMS = fileConfig.DebounceMS
			}
			if fileConfig.UploadTimeoutSeconds > 0 {
				cfg.UploadTimeoutSeconds = fileConfig.UploadTimeoutSeconds
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	// Environment variables override config file
	if envDir := os.Getenv("JOBTRACK_DATA_DIR"); envDir != "" {
		cfg.DataDir = expandPath(envDir)
	}
	if envView := os.Getenv("JOBTRACK_VIEW"); envView != "" {
		cfg.DefaultView = envView
	}

	// CLI flags override everything
	if flags.DataDir != "" {
		cfg.DataDir = expandPath(flags.DataDir)
	}
	if flags.View != "" {
		cfg.DefaultView = flags.View
	}

	if cfg.DefaultView != ViewTable && cfg.DefaultView != ViewBoard {
		return nil, fmt.Errorf("unknown view %q (want %s or %s)", cfg.DefaultView, ViewTable, ViewBoard)
	}

	if cfg.DataDir == "" {
		defaultDir, err := GetDefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = defaultDir
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the loaded config
func Get() *Config {
	return globalConfig
}

// Debounce is the delay before free-text configuration edits are saved
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// UploadTimeout aborts uploads running longer than this
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// GetDefaultDir returns the default data directory path
func GetDefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "jobtrack"), nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "jobtrack", "config.json"), nil
}

// loadConfigFile loads configuration from the settings file. Comments and
// trailing commas are allowed.
func loadConfigFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var settings Settings
	if err := json.Unmarshal(standardized, &settings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &settings, nil
}

// EnsureDataDir creates the data directory if missing
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	defaultDir, err := GetDefaultDir()
	if err != nil {
		return err
	}

	settings := Settings{
		DataDir:              defaultDir,
		DefaultView:          ViewTable,
		DebounceMS:           400,
		UploadTimeoutSeconds: 120,
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
