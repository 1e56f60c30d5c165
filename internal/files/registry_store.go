package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"qrdash/internal/utils"
)

const DefaultRegistryFile = "apps_config.json"

// RegistryStore keeps a Registry in a JSON file. Every call reads the file
// again, and every mutation rewrites it in full before returning. The mutex
// only orders calls within this process; other writers are not locked out.
type RegistryStore struct {
	filePath string
	mu       sync.Mutex
}

func NewRegistryStore(path string) *RegistryStore {
	if path == "" {
		path = DefaultRegistryFile
	}
	return &RegistryStore{filePath: path}
}

func (s *RegistryStore) Path() string { return s.filePath }

// Load reads the registry, creating an empty file first if there is none.
func (s *RegistryStore) Load() (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save overwrites the file with reg.
func (s *RegistryStore) Save(reg *Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(reg)
}

// Add sets name to url and persists. If either is empty nothing happens and
// added is false; that is not an error.
func (s *RegistryStore) Add(name, url string) (reg *Registry, added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err = s.load()
	if err != nil {
		return nil, false, err
	}
	if name == "" || url == "" {
		return reg, false, nil
	}
	reg.Set(name, url)
	if err := s.save(reg); err != nil {
		return nil, false, err
	}
	return reg, true, nil
}

// Remove deletes names after the caller confirmed it and returns the names
// that were actually present. Names that are not in the registry are
// ignored. An unconfirmed call or an empty selection is rejected with a
// *utils.Warning.
func (s *RegistryStore) Remove(names []string, confirmed bool) (reg *Registry, removed []string, err error) {
	if !confirmed {
		return nil, nil, utils.ErrRemoveNotConfirmed
	}
	if len(names) == 0 {
		return nil, nil, utils.ErrNothingSelected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err = s.load()
	if err != nil {
		return nil, nil, err
	}
	removed = make([]string, 0, len(names))
	for _, n := range names {
		if reg.Delete(n) {
			removed = append(removed, n)
		}
	}
	if err := s.save(reg); err != nil {
		return nil, nil, err
	}
	return reg, removed, nil
}

// Clear empties the registry after the caller confirmed it. A malformed
// file is reported, not replaced.
func (s *RegistryStore) Clear(confirmed bool) (*Registry, error) {
	if !confirmed {
		return nil, utils.ErrClearNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.load()
	if err != nil {
		return nil, err
	}
	reg.Reset()
	if err := s.save(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *RegistryStore) load() (*Registry, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		reg := NewRegistry()
		if err := s.save(reg); err != nil {
			return nil, err
		}
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.filePath, err)
	}
	reg, err := DecodeRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("malformed %s: %w", s.filePath, err)
	}
	return reg, nil
}

func (s *RegistryStore) save(reg *Registry) error {
	data, err := reg.Encode()
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.filePath, err)
	}
	return nil
}
