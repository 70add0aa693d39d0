package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/brianly1003/evbus/internal/bus"
)

// Validate validates the configuration.
func Validate(cfg *Config) error {
	if err := validateBus(&cfg.Bus); err != nil {
		return err
	}

	if err := validateLedger(&cfg.Ledger); err != nil {
		return err
	}

	if err := validateScenario(&cfg.Scenario); err != nil {
		return err
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	return nil
}

func validateBus(cfg *BusConfig) error {
	if _, err := bus.ParseMode(cfg.Mode); err != nil {
		return fmt.Errorf("bus.mode: %w", err)
	}

	if !slices.Contains(ValidFailureHooks, cfg.FailureHook) {
		return fmt.Errorf("bus.failure_hook must be one of: %s", strings.Join(ValidFailureHooks, ", "))
	}

	for _, m := range cfg.Markers {
		name := m
		for _, prefix := range []string{"tag:", "method:"} {
			name = strings.TrimPrefix(name, prefix)
		}
		if name == "" {
			return fmt.Errorf("bus.markers has an empty marker: %q", m)
		}
	}

	return nil
}

func validateLedger(cfg *LedgerConfig) error {
	if !cfg.Persist {
		return nil
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("ledger.db_path cannot be empty when ledger.persist is true")
	}

	// The file is created on first use; only an existing directory in its place is an error.
	info, err := os.Stat(cfg.DBPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error accessing ledger.db_path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("ledger.db_path must be a file, not a directory: %s", cfg.DBPath)
	}

	return nil
}

func validateScenario(cfg *ScenarioConfig) error {
	if cfg.DebounceMS < 0 {
		return fmt.Errorf("scenario.debounce_ms cannot be negative")
	}
	if cfg.DebounceMS > 10000 {
		return fmt.Errorf("scenario.debounce_ms cannot exceed 10000ms")
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if !slices.Contains(ValidLogLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("logging.level must be one of: %s", strings.Join(ValidLogLevels, ", "))
	}
	if !slices.Contains(ValidLogFormats, strings.ToLower(cfg.Format)) {
		return fmt.Errorf("logging.format must be one of: %s", strings.Join(ValidLogFormats, ", "))
	}
	return nil
}
