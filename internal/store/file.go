package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gosimple/slug"
)

// FileStore keeps every key in its own file under dir.
// Keys are slugged, so "app:settings" lives in {dir}/app-settings.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, slug.Make(key)+".json")
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileStore) Set(_ context.Context, key string, blob string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Write to temp file then rename for atomic writes
	p := f.path(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(blob), 0644); err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming file for key %s: %w", key, err)
	}
	return nil
}
