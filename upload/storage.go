package upload

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// DiskStorage writes files into Dir. They are expected to be served as
// static files under URLPrefix.
type DiskStorage struct {
	Dir       string
	URLPrefix string
}

func NewDiskStorage(dir, urlPrefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload directory %s", dir)
	}
	return &DiskStorage{Dir: dir, URLPrefix: urlPrefix}, nil
}

func (s *DiskStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", name)
	}
	return path.Join(s.URLPrefix, name), nil
}

// Remove deletes the file served at urlPath. A missing file is not an error.
func (s *DiskStorage) Remove(_ context.Context, urlPath string) error {
	name := path.Base(urlPath)
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "removing %s", name)
	}
	return nil
}

// MemoryStorage keeps files in process memory. They are lost on restart.
type MemoryStorage struct {
	URLPrefix string

	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryStorage(urlPrefix string) *MemoryStorage {
	return &MemoryStorage{
		URLPrefix: urlPrefix,
		files:     map[string][]byte{},
	}
}

func (s *MemoryStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	name = path.Base(name)
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.files[name] = stored
	s.mu.Unlock()

	return path.Join(s.URLPrefix, name), nil
}

func (s *MemoryStorage) Remove(_ context.Context, urlPath string) error {
	s.mu.Lock()
	delete(s.files, path.Base(urlPath))
	s.mu.Unlock()
	return nil
}

// Len reports how many files are held.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Get returns the bytes stored under name.
func (s *MemoryStorage) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[name]
	return data, ok
}
