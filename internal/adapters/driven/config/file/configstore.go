package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in <dir>/config.toml. A dotted key is a path
// through TOML tables: "llm.model" is model under [llm].
type ConfigStore struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

// DefaultDir is ~/.searchlift.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".searchlift"), nil
}

// NewConfigStore opens the config file in dir, or DefaultDir when dir is
// empty. The directory is created; a missing file is an empty config.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	s := &ConfigStore{path: filepath.Join(dir, "config.toml")}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Path() string { return s.path }

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetInt reads TOML integers. Floats are not truncated.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// GetFloat accepts integers too, so "rate = 2" reads the same as "rate = 2.0".
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Set writes the whole file before returning. On failure the previous
// in-memory state is kept.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]any, len(s.values)+1)
	maps.Copy(next, s.values)
	next[key] = value
	if err := s.write(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Load replaces the in-memory settings with the file contents.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		raw, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	tree := map[string]any{}
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	flat := map[string]any{}
	flatten(flat, "", tree)

	s.mu.Lock()
	s.values = flat
	s.mu.Unlock()
	return nil
}

// write replaces the file through a temp file so a crash cannot leave it
// half written. The file may hold API keys, hence 0600.
func (s *ConfigStore) write(values map[string]any) error {
	data, err := toml.Marshal(nest(values))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// flatten copies tree into dst with dotted keys.
func flatten(dst map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(dst, k, sub)
			continue
		}
		dst[k] = v
	}
}

// nest turns dotted keys back into tables. When a key is both a value and
// a table prefix ("a" and "a.b"), the value wins and the deeper key is
// dropped.
func nest(flat map[string]any) map[string]any {
	keys := slices.SortedFunc(maps.Keys(flat), func(a, b string) int {
		return strings.Count(a, ".") - strings.Count(b, ".")
	})

	root := map[string]any{}
	for _, key := range keys {
		path := strings.Split(key, ".")
		if table := descend(root, path[:len(path)-1]); table != nil {
			table[path[len(path)-1]] = flat[key]
		}
	}
	return root
}

// descend walks or creates tables along path. It returns nil when a value
// already occupies part of the path.
func descend(table map[string]any, path []string) map[string]any {
	for _, name := range path {
		switch child := table[name].(type) {
		case nil:
			next := map[string]any{}
			table[name] = next
			table = next
		case map[string]any:
			table = child
		default:
			return nil
		}
	}
	return table
}
