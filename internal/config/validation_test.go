package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Bus:      BusConfig{Mode: "annotation", FailureHook: "none"},
		Ledger:   LedgerConfig{DBPath: "/tmp/evbus/ledger.db"},
		Scenario: ScenarioConfig{DebounceMS: 200},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestValidateBus(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BusConfig
		wantErr string
	}{
		{
			name:    "valid annotation",
			cfg:     BusConfig{Mode: "annotation", FailureHook: "none", Markers: []string{"evbus"}},
			wantErr: "",
		},
		{
			name:    "valid method name with prefixes",
			cfg:     BusConfig{Mode: "method_name", FailureHook: "log", Markers: []string{"OnHeartbeat", "tag:evbus"}},
			wantErr: "",
		},
		{
			name:    "unknown mode",
			cfg:     BusConfig{Mode: "broadcast", FailureHook: "none"},
			wantErr: "bus.mode",
		},
		{
			name:    "empty mode",
			cfg:     BusConfig{Mode: "", FailureHook: "none"},
			wantErr: "bus.mode",
		},
		{
			name:    "unknown hook",
			cfg:     BusConfig{Mode: "annotation", FailureHook: "panic"},
			wantErr: "bus.failure_hook must be one of",
		},
		{
			name:    "empty prefixed marker",
			cfg:     BusConfig{Mode: "annotation", FailureHook: "none", Markers: []string{"method:"}},
			wantErr: "empty marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBus(&tt.cfg)
			checkErr(t, err, tt.wantErr)
		})
	}
}

func TestValidateLedger(t *testing.T) {
	tempDir := t.TempDir()
	existing := filepath.Join(tempDir, "ledger.db")
	if err := os.WriteFile(existing, nil, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		cfg     LedgerConfig
		wantErr string
	}{
		{
			name:    "not persisted",
			cfg:     LedgerConfig{Persist: false, DBPath: ""},
			wantErr: "",
		},
		{
			name:    "new file",
			cfg:     LedgerConfig{Persist: true, DBPath: filepath.Join(tempDir, "new.db")},
			wantErr: "",
		},
		{
			name:    "existing file",
			cfg:     LedgerConfig{Persist: true, DBPath: existing},
			wantErr: "",
		},
		{
			name:    "empty path",
			cfg:     LedgerConfig{Persist: true},
			wantErr: "cannot be empty",
		},
		{
			name:    "directory",
			cfg:     LedgerConfig{Persist: true, DBPath: tempDir},
			wantErr: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLedger(&tt.cfg)
			checkErr(t, err, tt.wantErr)
		})
	}
}

func TestValidateScenario(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ScenarioConfig
		wantErr string
	}{
		{"valid", ScenarioConfig{DebounceMS: 200}, ""},
		{"zero", ScenarioConfig{DebounceMS: 0}, ""},
		{"max", ScenarioConfig{DebounceMS: 10000}, ""},
		{"negative", ScenarioConfig{DebounceMS: -1}, "cannot be negative"},
		{"too large", ScenarioConfig{DebounceMS: 10001}, "cannot exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScenario(&tt.cfg)
			checkErr(t, err, tt.wantErr)
		})
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr string
	}{
		{"console", LoggingConfig{Level: "info", Format: "console"}, ""},
		{"json upper case level", LoggingConfig{Level: "DEBUG", Format: "json"}, ""},
		{"bad level", LoggingConfig{Level: "verbose", Format: "console"}, "logging.level"},
		{"bad format", LoggingConfig{Level: "info", Format: "xml"}, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLogging(&tt.cfg)
			checkErr(t, err, tt.wantErr)
		})
	}
}

func TestValidate_FullConfig(t *testing.T) {
	cfg := validConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.Scenario.DebounceMS = -5
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "scenario.debounce_ms") {
		t.Errorf("Validate() error = %v, want scenario.debounce_ms error", err)
	}
}

func checkErr(t *testing.T, err error, wantErr string) {
	t.Helper()

	if wantErr == "" {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Errorf("expected error containing %q, got nil", wantErr)
		return
	}
	if !strings.Contains(err.Error(), wantErr) {
		t.Errorf("error = %q, want containing %q", err.Error(), wantErr)
	}
}
