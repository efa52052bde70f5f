// Package prefs is a small persistent key-value store backed by JSON files
// under the bidwatch state directory. Each key is its own file so entries are
// independently loadable and a corrupt entry never poisons its neighbors:
// reads of missing or unparseable entries fall back to the caller's default.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Well-known keys. Callers may use arbitrary keys; these are the ones the
// application persists today.
const (
	KeyAPIKey       = "api_key"
	KeyKeyValidated = "api_key_validated"
	KeyChatHistory  = "chat_history"
	KeyTheme        = "theme"
	KeyDatasetPath  = "dataset_path"
)

// Store is a file-backed KV store. Safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open creates a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("prefs: state directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prefs: create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// OpenDefault opens the store in the default per-user location, preferring a
// project-local .bidwatch directory when the working directory allows it.
func OpenDefault() (*Store, error) {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".bidwatch")
		if stat, err := os.Stat(local); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return Open(local)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("prefs: resolve home dir: %w", err)
	}
	return Open(filepath.Join(home, ".bidwatch"))
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Get unmarshals the stored value for key into out. When the entry is
// missing or corrupt, out is left untouched (the caller's pre-set default
// survives) and ok is false. Only genuine I/O failures return an error.
func (s *Store) Get(key string, out any) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("prefs: read %q: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// Corrupt entry: treat as absent.
		return false, nil
	}
	return true, nil
}

// Set marshals value and writes it atomically (temp file + rename) so a
// crash mid-write never leaves a truncated entry behind.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs: marshal %q: %w", key, err)
	}

	dst := s.path(key)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("prefs: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("prefs: commit %q: %w", key, err)
	}
	return nil
}

// Remove deletes the entry for key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("prefs: remove %q: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys in sorted order.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("prefs: list keys: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// path maps a key to its backing file, sanitizing path separators so a key
// can never escape the state directory.
func (s *Store) path(key string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, key)
	return filepath.Join(s.dir, clean+".json")
}
