package filestore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/altukhov/jarship/pkg/history"
)

var _ history.Store = (*FileStore)(nil)

// FileStore keeps the deployment history as a YAML list in a single file.
// Writes go through a temp file and an atomic rename. Appends from
// concurrent target deployments are serialized by the mutex.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func New(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Append(ctx context.Context, rec history.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.List(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	bytes, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("Append: failed to marshal YAML: %w", err)
	}

	// Write to temp file first
	tmpPath := f.Path + ".tmp"
	if err := os.WriteFile(tmpPath, bytes, 0600); err != nil {
		return fmt.Errorf("Append: failed to write temp file %s: %w", tmpPath, err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("Append: failed to replace %s with %s: %w", f.Path, tmpPath, err)
	}
	return nil
}

func (f *FileStore) List(_ context.Context) ([]history.Record, error) {
	bytes, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("List: failed to read file %s: %w", f.Path, err)
	}

	var records []history.Record
	if err := yaml.Unmarshal(bytes, &records); err != nil {
		return nil, fmt.Errorf("List: failed to parse YAML in %s: %w", f.Path, err)
	}
	return records, nil
}
