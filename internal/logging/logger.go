// Package logging provides config-driven categorized file-based logging for
// bidwatch. Logs are written to <state dir>/logs/ with a separate file per
// category. Logging is controlled by the logging section of config.yaml;
// when debug mode is off, every call is a silent no-op so the interactive
// TUI never pays for it.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot   Category = "boot"   // startup and shutdown
	CategoryStore  Category = "store"  // dataset ingest and queries
	CategoryChat   Category = "chat"   // conversation turns, streaming
	CategoryMemory Category = "memory" // summarization, trimming
	CategoryAPI    Category = "api"    // chat-completion HTTP calls
	CategoryNews   Category = "news"   // news links and instant answers
)

// loggingConfig mirrors the logging section of config.Config to avoid a
// circular import with internal/config.
type loggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	stateDir  string
	config    loggingConfig
	configMu  sync.RWMutex
	logLevel  int
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory and loads config. Call once at
// startup with the bidwatch state directory (e.g. ~/.bidwatch).
func Initialize(dir string) error {
	if dir == "" {
		return fmt.Errorf("state directory required")
	}

	stateDir = dir
	logsDir = filepath.Join(stateDir, "logs")

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not load config: %v\n", err)
		config.DebugMode = false
	}

	if !config.DebugMode {
		return nil // silent no-op in production mode
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== bidwatch logging initialized ===")
	boot.Info("State directory: %s", stateDir)
	boot.Info("Log level: %s", config.Level)
	return nil
}

// loadConfig reads the logging section from <state dir>/config.yaml.
func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	data, err := os.ReadFile(filepath.Join(stateDir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			// No config = production mode (no logging).
			config.DebugMode = false
			return nil
		}
		return err
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	config = cf.Logging

	switch config.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.DebugMode {
		return false
	}
	if config.Categories == nil {
		return true
	}
	enabled, exists := config.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a no-op
// logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	file, err := os.OpenFile(filepath.Join(logsDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file: %v\n", err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience functions; no-ops when the category is disabled.

func Boot(format string, args ...interface{})  { Get(CategoryBoot).Info(format, args...) }
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }
func Chat(format string, args ...interface{})  { Get(CategoryChat).Info(format, args...) }
func API(format string, args ...interface{})   { Get(CategoryAPI).Info(format, args...) }
func News(format string, args ...interface{})  { Get(CategoryNews).Info(format, args...) }

func StoreDebug(format string, args ...interface{})  { Get(CategoryStore).Debug(format, args...) }
func ChatDebug(format string, args ...interface{})   { Get(CategoryChat).Debug(format, args...) }
func MemoryDebug(format string, args ...interface{}) { Get(CategoryMemory).Debug(format, args...) }
func APIDebug(format string, args ...interface{})    { Get(CategoryAPI).Debug(format, args...) }

func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }
func ChatError(format string, args ...interface{})  { Get(CategoryChat).Error(format, args...) }
func MemoryWarn(format string, args ...interface{}) { Get(CategoryMemory).Warn(format, args...) }
func APIError(format string, args ...interface{})   { Get(CategoryAPI).Error(format, args...) }
func NewsError(format string, args ...interface{})  { Get(CategoryNews).Error(format, args...) }

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
