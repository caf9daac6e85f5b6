package authz

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore persists the session bundle across process restarts.
type SessionStore interface {
	Load() (*Bundle, error)
	Save(bundle *Bundle) error
	Clear() error
}

// MemoryStore keeps the bundle in memory.
type MemoryStore struct {
	mu     sync.Mutex
	bundle *Bundle
}

// NewMemoryStore returns an empty store, optionally seeded with bundle.
func NewMemoryStore(seed ...*Bundle) *MemoryStore {
	store := &MemoryStore{}
	if len(seed) > 0 {
		store.bundle = seed[0].clone()
	}
	return store
}

func (s *MemoryStore) Load() (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.clone(), nil
}

func (s *MemoryStore) Save(bundle *Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = bundle.clone()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = nil
	return nil
}

// FileStore keeps the bundle as JSON on disk.
type FileStore struct {
	path string
}

// NewFileStore stores the bundle at path, or at DefaultSessionPath when empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		def, err := DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	return &FileStore{path: path}, nil
}

// DefaultSessionPath returns the per-user session file location.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "portal-colegio", "session.json"), nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (*Bundle, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var bundle Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return &bundle, nil
}

func (s *FileStore) Save(bundle *Bundle) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
