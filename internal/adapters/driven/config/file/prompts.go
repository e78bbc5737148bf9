package file

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed prompts_readme.md
var promptsReadme []byte

// builtinPrompts seeds the prompt directory and backs any file that is
// missing or unreadable.
var builtinPrompts = map[string]string{
	driven.PromptMetaSystem: domain.DefaultMetaSystemPrompt,
	driven.PromptMetaUser:   domain.DefaultMetaUserPrompt,
}

// PromptStore serves prompts from <dir>/<name>.txt. The directory is seeded
// with the built-in prompts on first use; existing files are left alone.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu     sync.RWMutex
	loaded map[string]string
}

// NewPromptStore returns a store rooted at dir, or at <DefaultDir>/prompts
// when dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, loaded: map[string]string{}}, nil
}

// Dir returns the directory prompts are read from.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt. The file on disk wins; the built-in text
// is used when the file cannot be read.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.RLock()
	text, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	builtin, known := builtinPrompts[name]
	if s.seedErr != nil {
		if known {
			return builtin, nil
		}
		return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
	}

	data, err := os.ReadFile(s.path(name))
	switch {
	case err == nil:
		text = strings.TrimSpace(string(data))
	case known:
		text = builtin
	default:
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.loaded[name]; ok {
		return cached, nil
	}
	s.loaded[name] = text
	return text, nil
}

// Reload drops cached prompts so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = map[string]string{}
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed creates the directory and writes any missing prompt files.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name, text := range builtinPrompts {
		if err := writeIfMissing(s.path(name), []byte(text)); err != nil {
			return fmt.Errorf("seed prompt %q: %w", name, err)
		}
	}
	return writeIfMissing(filepath.Join(s.dir, "README.md"), promptsReadme)
}

func writeIfMissing(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
