package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var log = logger.For("prompts")

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaults embed.FS

// PromptStore reads prompts from <dir>/<name>.txt, falling back to the
// built-in defaults.
//
// The directory is seeded with the defaults on first Load, never in the
// constructor, and existing files are left untouched.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir.
// An empty dir means the prompts directory next to the default config file.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		configDir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(configDir, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the named prompt with surrounding whitespace removed.
// Unknown names without a file on disk return domain.ErrNotFound.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	s.mu.RLock()
	text, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	text, err := s.read(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[name] = text
	s.mu.Unlock()
	return text, nil
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if errors.Is(err, fs.ErrNotExist) || (err != nil && s.seedErr != nil) {
		data, err = defaults.ReadFile("defaults/" + name + ".txt")
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
		}
	}
	if err != nil {
		return "", fmt.Errorf("read prompt %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Reload drops cached prompts so edited files are read again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// seed copies every default that has no file on disk yet. On failure the
// built-in defaults are served instead.
func (s *PromptStore) seed() {
	defer func() {
		if s.seedErr != nil {
			log.Warn("%v; using built-in prompts", s.seedErr)
		}
	}()
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create %s: %w", s.dir, err)
		return
	}
	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, e := range entries {
		path := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaults.ReadFile("defaults/" + e.Name())
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", path, err)
			return
		}
	}
}
