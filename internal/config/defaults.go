package config

// DefaultMode is the bus mode used when neither the config nor the scenario sets one.
const DefaultMode = "annotation"

// DefaultLedgerFile is the ledger database name inside the config directory.
const DefaultLedgerFile = "ledger.db"

// DefaultConfigFile is the config file name written by "evbus config init".
const DefaultConfigFile = "config.yaml"

// DefaultWatchIgnorePatterns lists path components skipped when watching a
// scenario directory.
var DefaultWatchIgnorePatterns = []string{
	".git",
	".evbus",
	"node_modules",
	"vendor",
	".idea",
	".vscode",
	".DS_Store",
	"*.swp",
	"*.swo",
	"*~",
}

// ValidModes lists the accepted bus.mode values.
var ValidModes = []string{"annotation", "method_name"}

// ValidFailureHooks lists the accepted bus.failure_hook values.
var ValidFailureHooks = []string{"none", "log"}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging.format values.
var ValidLogFormats = []string{"console", "json"}
