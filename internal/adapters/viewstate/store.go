// Package viewstate persists expanded tile keys per map in a flat JSON file.
package viewstate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bytedance/sonic"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.ViewStateStore using a flat JSON file.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string][]string
}

// NewStore creates a new view state store backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string][]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrViewStateReadFailed, err), "failed to open view state"), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrViewStateReadFailed, err), "failed to decode view state"), "path", s.path)
	}

	return nil
}

// saveLocked writes the cache to a temporary file and renames it over the store.
func (s *Store) saveLocked() error {
	data, err := sonic.ConfigStd.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to encode view state")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to create directory for view state")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to create temporary view state")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to write view state")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to write view state")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to write view state")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrViewStateWriteFailed, err), "failed to replace view state")
	}

	return nil
}

// Load returns the expanded tile keys saved for mapKey, or nil if none were saved.
func (s *Store) Load(mapKey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, ok := s.cache[mapKey]
	if !ok {
		return nil, nil
	}
	return slices.Clone(keys), nil
}

// Save replaces the expanded tile keys for mapKey. An empty set removes the map.
// Keys are stored sorted and deduplicated.
func (s *Store) Save(mapKey string, expanded []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(expanded) == 0 {
		delete(s.cache, mapKey)
	} else {
		keys := slices.Clone(expanded)
		slices.Sort(keys)
		s.cache[mapKey] = slices.Compact(keys)
	}

	return s.saveLocked()
}
