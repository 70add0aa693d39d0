// Package config handles configuration management for evbus.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Bus      BusConfig      `mapstructure:"bus"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BusConfig holds the defaults used when a scenario does not set its own.
type BusConfig struct {
	Mode        string   `mapstructure:"mode"`         // annotation or method_name
	Markers     []string `mapstructure:"markers"`      // tag keys or method names, prefix "tag:"/"method:" to force the kind
	FailureHook string   `mapstructure:"failure_hook"` // none or log
}

// LedgerConfig holds ledger persistence configuration.
type LedgerConfig struct {
	Persist bool   `mapstructure:"persist"`
	DBPath  string `mapstructure:"db_path"`
}

// ScenarioConfig holds scenario watch configuration.
type ScenarioConfig struct {
	DebounceMS     int      `mapstructure:"debounce_ms"`
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.evbus")
		v.AddConfigPath("/etc/evbus")
	}

	// EVBUS_BUS_MODE, EVBUS_LEDGER_DB_PATH, ...
	v.SetEnvPrefix("EVBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - not an error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bus.mode", DefaultMode)
	v.SetDefault("bus.markers", []string{})
	v.SetDefault("bus.failure_hook", "none")

	v.SetDefault("ledger.persist", false)
	v.SetDefault("ledger.db_path", "")

	v.SetDefault("scenario.debounce_ms", 200)
	v.SetDefault("scenario.ignore_patterns", DefaultWatchIgnorePatterns)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// postProcess normalizes values and fills in derived paths.
func postProcess(cfg *Config) error {
	cfg.Bus.Mode = strings.ToLower(strings.TrimSpace(cfg.Bus.Mode))
	cfg.Bus.FailureHook = strings.ToLower(strings.TrimSpace(cfg.Bus.FailureHook))
	cfg.Bus.Markers = dedupeMarkers(cfg.Bus.Markers)

	if cfg.Ledger.DBPath == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve ledger path: %w", err)
		}
		cfg.Ledger.DBPath = filepath.Join(dir, DefaultLedgerFile)
	}

	absPath, err := filepath.Abs(expandHome(cfg.Ledger.DBPath))
	if err != nil {
		return fmt.Errorf("failed to resolve ledger path: %w", err)
	}
	cfg.Ledger.DBPath = absPath

	return nil
}

// dedupeMarkers trims markers and drops blanks and repeats, keeping order.
// Env values arrive as one space separated string.
func dedupeMarkers(markers []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(markers))
	for _, raw := range markers {
		for _, m := range strings.Fields(raw) {
			m = strings.TrimSuffix(m, ",")
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			result = append(result, m)
		}
	}
	return result
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetConfigDir returns the user config directory for evbus.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".evbus"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
