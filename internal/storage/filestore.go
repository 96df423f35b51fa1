package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит отметки в JSON-файле; запись через временный файл и rename
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load() (map[string]Processed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	processed := make(map[string]Processed)
	bs, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return processed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if len(bs) == 0 {
		return processed, nil
	}
	if err := json.Unmarshal(bs, &processed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return processed, nil
}

func (f *FileStore) Save(data map[string]Processed) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, bs, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}
