package config

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	// DebugMode gates all file logging; off means no log files at all.
	DebugMode bool `yaml:"debug_mode"`

	// Categories toggles individual categories; unlisted categories are
	// enabled by default in debug mode.
	Categories map[string]bool `yaml:"categories"`

	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}
