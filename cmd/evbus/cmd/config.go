package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brianly1003/evbus/internal/config"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage evbus configuration.

Without subcommands, shows the current effective configuration.

Examples:
  evbus config              # Show current config
  evbus config init         # Create config file with defaults
  evbus config path         # Show config file location
  evbus config get <key>    # Get a config value
  evbus config set <key> <value>  # Set a config value`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printConfig(cfg)
		return nil
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings and documentation.

By default, creates ~/.evbus/config.yaml.
Use --local to create ./config.yaml in the current directory.

Examples:
  evbus config init          # Create ~/.evbus/config.yaml
  evbus config init --local  # Create ./config.yaml
  evbus config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	RunE:  runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  evbus config get bus.mode
  evbus config get ledger.db_path
  evbus config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a config value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key in ~/.evbus/config.yaml.

Creates the config file if it doesn't exist.
List values (bus.markers) take a comma separated value.

Examples:
  evbus config set bus.mode method_name
  evbus config set bus.markers OnSessionStarted,OnFileChanged
  evbus config set ledger.persist true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.evbus/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var configPath string

	if configInitLocal {
		configPath = config.DefaultConfigFile
	} else {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, config.DefaultConfigFile)
	}

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
	}

	if err := writeDefaultConfig(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config dir: %w", err)
	}

	locations := []string{
		filepath.Join(".", config.DefaultConfigFile),
		filepath.Join(configDir, config.DefaultConfigFile),
		filepath.Join("/etc/evbus", config.DefaultConfigFile),
	}
	if cfgFile != "" {
		locations = []string{cfgFile}
	}

	fmt.Println("Config search paths (in order):")
	for i, loc := range locations {
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	fmt.Printf("\nConfig directory: %s\n", configDir)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	if cfgFile != "" {
		configPath = cfgFile
	}

	if err := setConfigFileValue(configPath, key, value); err != nil {
		return err
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, configPath)
	return nil
}

// setConfigFileValue rewrites one key of the YAML file at path, keeping
// the other keys.
func setConfigFileValue(path, key, value string) error {
	if _, err := lookupConfigKey(key); err != nil {
		return err
	}

	var data map[string]interface{}
	if content, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	if err := setNestedValue(data, key, value); err != nil {
		return err
	}

	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, content, 0644)
}

// configKeys maps each settable key to its accessor.
var configKeys = map[string]func(cfg *config.Config) interface{}{
	"bus.mode":                 func(c *config.Config) interface{} { return c.Bus.Mode },
	"bus.markers":              func(c *config.Config) interface{} { return strings.Join(c.Bus.Markers, ",") },
	"bus.failure_hook":         func(c *config.Config) interface{} { return c.Bus.FailureHook },
	"ledger.persist":           func(c *config.Config) interface{} { return c.Ledger.Persist },
	"ledger.db_path":           func(c *config.Config) interface{} { return c.Ledger.DBPath },
	"scenario.debounce_ms":     func(c *config.Config) interface{} { return c.Scenario.DebounceMS },
	"scenario.ignore_patterns": func(c *config.Config) interface{} { return strings.Join(c.Scenario.IgnorePatterns, ",") },
	"logging.level":            func(c *config.Config) interface{} { return c.Logging.Level },
	"logging.format":           func(c *config.Config) interface{} { return c.Logging.Format },
}

func lookupConfigKey(key string) (func(cfg *config.Config) interface{}, error) {
	get, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return get, nil
}

func getConfigValue(cfg *config.Config, key string) (interface{}, error) {
	get, err := lookupConfigKey(key)
	if err != nil {
		return nil, err
	}
	return get(cfg), nil
}

func setNestedValue(data map[string]interface{}, key string, value string) error {
	parts := strings.Split(key, ".")

	// Navigate to the parent
	current := data
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := current[parts[i]]; !ok {
			current[parts[i]] = make(map[string]interface{})
		}
		if nested, ok := current[parts[i]].(map[string]interface{}); ok {
			current = nested
		} else {
			return fmt.Errorf("cannot set nested value: %s is not a map", parts[i])
		}
	}

	current[parts[len(parts)-1]] = parseValue(key, value)
	return nil
}

func parseValue(key string, value string) interface{} {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	switch key {
	case "scenario.debounce_ms":
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	case "bus.markers", "scenario.ignore_patterns":
		var list []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return list
	}

	return value
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Bus Mode:        %s\n", cfg.Bus.Mode)
	fmt.Printf("Bus Markers:     %s\n", strings.Join(cfg.Bus.Markers, ", "))
	fmt.Printf("Failure Hook:    %s\n", cfg.Bus.FailureHook)
	fmt.Printf("Persist Ledger:  %t\n", cfg.Ledger.Persist)
	fmt.Printf("Ledger DB:       %s\n", cfg.Ledger.DBPath)
	fmt.Printf("Watch Debounce:  %dms\n", cfg.Scenario.DebounceMS)
	fmt.Printf("Log Level:       %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:      %s\n", cfg.Logging.Format)
}

func writeDefaultConfig(path string) error {
	content := `# evbus Configuration
# Copy this file to ~/.evbus/config.yaml and modify as needed

# Bus defaults, used when a scenario does not set its own
bus:
  # Handler discovery: annotation (struct tags) or method_name
  mode: "annotation"

  # Tag keys (annotation) or method names (method_name).
  # Empty uses the markers of the built-in subscribers.
  # Prefix with "tag:" or "method:" to force the marker kind.
  markers: []

  # Handler failures: none (abort dispatch) or log (continue and record)
  failure_hook: "none"

# Run ledger storage
ledger:
  # Store every run ledger in SQLite
  persist: false

  # Database path (default: ~/.evbus/ledger.db)
  # db_path: "~/.evbus/ledger.db"

# evbus run --watch
scenario:
  # Debounce rapid saves (milliseconds)
  debounce_ms: 200

  # Patterns to ignore (supports glob syntax)
  ignore_patterns:
    - ".git"
    - "node_modules"
    - "*.swp"

# Logging settings
logging:
  # Log level: trace, debug, info, warn, error
  level: "info"

  # Log format: console (human-readable) or json
  format: "console"
`

	return os.WriteFile(path, []byte(content), 0644)
}
