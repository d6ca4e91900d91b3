package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driven/config/memory"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore persists settings to a TOML file.
// Values are held as flattened dotted keys and written back as nested tables,
// so a hand-edited file and one written by mdr look the same.
type ConfigStore struct {
	*memory.ConfigStore

	io       sync.Mutex
	filePath string
}

// NewConfigStore creates a store for config.toml inside configDir.
// If configDir is empty, defaults to ~/.mdr/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".mdr")
	}
	return OpenConfigStore(filepath.Join(configDir, "config.toml"))
}

// OpenConfigStore creates a store backed by the file at path.
// The parent directory is created if needed. A missing file is not an error.
func OpenConfigStore(path string) (*ConfigStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		ConfigStore: memory.NewConfigStore(nil),
		filePath:    path,
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores a value and writes the file. A nil value removes the key.
func (s *ConfigStore) Set(key string, value any) error {
	if err := s.ConfigStore.Set(key, value); err != nil {
		return err
	}
	return s.Save()
}

// Save writes every key to the TOML file.
func (s *ConfigStore) Save() error {
	s.io.Lock()
	defer s.io.Unlock()

	data, err := toml.Marshal(nestMap(s.Values()))
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.filePath, err)
	}
	return os.WriteFile(s.filePath, data, 0o600)
}

// Load replaces the in-memory keys with the file's contents.
func (s *ConfigStore) Load() error {
	s.io.Lock()
	defer s.io.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.Replace(flattenMap(loaded, ""))
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenMap turns nested tables into dotted keys: {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any)
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		nested, ok := value.(map[string]any)
		if !ok {
			out[key] = value
			continue
		}
		for k, v := range flattenMap(nested, key) {
			out[k] = v
		}
	}
	return out
}

// nestMap is the inverse of flattenMap. A key whose prefix is already a
// plain value is kept as a quoted dotted key at the top level.
func nestMap(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Shallow keys first so plain values claim their names before tables do.
	sort.Slice(keys, func(i, j int) bool {
		di, dj := strings.Count(keys[i], "."), strings.Count(keys[j], ".")
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node, ok := descend(root, parts[:len(parts)-1])
		leaf := parts[len(parts)-1]
		if _, taken := node[leaf]; !ok || taken {
			root[key] = flat[key]
			continue
		}
		node[leaf] = flat[key]
	}
	return root
}

// descend walks or creates the tables named by path.
// It fails when a path segment already holds a plain value.
func descend(root map[string]any, path []string) (map[string]any, bool) {
	node := root
	for _, part := range path {
		next, exists := node[part]
		if !exists {
			child := make(map[string]any)
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}
