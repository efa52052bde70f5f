// Package config holds all bidwatch configuration, loaded from config.yaml in
// the state directory with environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all bidwatch configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Chat-completion provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Conversation memory configuration
	Memory MemoryConfig `yaml:"memory"`

	// Dataset store configuration
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the analytical store.
type StoreConfig struct {
	// DatabasePath is where the ingested dataset lives. Empty means
	// <state dir>/contracts.db.
	DatabasePath string `yaml:"database_path"`

	// WatchDataset enables the fsnotify staleness watcher on loaded files.
	WatchDataset bool `yaml:"watch_dataset"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "bidwatch",
		Version: "0.3.0",
		LLM:     DefaultLLMConfig(),
		Memory:  DefaultMemoryConfig(),
		Store: StoreConfig{
			WatchDataset: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// StateDir resolves the bidwatch state directory, preferring a project-local
// .bidwatch directory over the home-level one.
func StateDir() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".bidwatch")
		if stat, err := os.Stat(local); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return local, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".bidwatch"), nil
}

// Load reads config.yaml from dir, applying defaults for anything unset and
// environment overrides on top. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config back to dir/config.yaml.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over file values so users
// never have to write credentials to disk.
func (c *Config) applyEnvOverrides() {
	for _, name := range []string{"BIDWATCH_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.LLM.APIKey = v
			break
		}
	}
	if v := os.Getenv("BIDWATCH_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("BIDWATCH_MODEL"); v != "" {
		c.LLM.Model = v
	}
}
