package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FSStore implements Store on the filesystem. Each dataset lives in
// <baseDir>/datasets/<name>/ as dataset.json plus an optional history.jsonl.
//
// Dataset writes go through a temp file and rename, so concurrent readers
// never see a partial file. History appends are serialized per store.
type FSStore struct {
	baseDir string
	history historyLog
}

// NewFSStore creates a filesystem store. The baseDir is created if missing.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

// DatasetsDir returns the directory holding one subdirectory per dataset.
func (fs *FSStore) DatasetsDir() string {
	return filepath.Join(fs.baseDir, "datasets")
}

// DatasetDir returns the directory of one dataset.
func (fs *FSStore) DatasetDir(name string) string {
	return filepath.Join(fs.DatasetsDir(), name)
}

func (fs *FSStore) datasetPath(name string) string {
	return filepath.Join(fs.DatasetDir(name), "dataset.json")
}

// Save atomically writes a dataset.
func (fs *FSStore) Save(d *Dataset) error {
	if d == nil {
		return fmt.Errorf("dataset cannot be nil")
	}
	if err := d.Validate(); err != nil {
		return err
	}

	dir := fs.DatasetDir(d.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize dataset: %w", err)
	}

	finalPath := fs.datasetPath(d.Name)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp dataset file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename dataset file: %w", err)
	}

	slog.Debug("Dataset saved", "name", d.Name, "points", len(d.Points), "path", finalPath)
	return nil
}

// Load reads a dataset by name.
func (fs *FSStore) Load(name string) (*Dataset, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	path := fs.datasetPath(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to deserialize dataset: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s is corrupt: %w", name, err)
	}

	slog.Debug("Dataset loaded", "name", name, "path", path)
	return &d, nil
}

// List returns metadata for all readable datasets, sorted by name.
func (fs *FSStore) List() ([]DatasetInfo, error) {
	entries, err := os.ReadDir(fs.DatasetsDir())
	if errors.Is(err, os.ErrNotExist) {
		return []DatasetInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets directory: %w", err)
	}

	infos := []DatasetInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := os.Stat(fs.datasetPath(name)); err != nil {
			continue
		}

		d, err := fs.Load(name)
		if err != nil {
			slog.Warn("Failed to load dataset for listing", "name", name, "error", err)
			continue
		}
		infos = append(infos, d.ToInfo())
	}

	slices.SortFunc(infos, func(a, b DatasetInfo) int { return strings.Compare(a.Name, b.Name) })
	slog.Debug("Listed datasets", "count", len(infos))
	return infos, nil
}

// Delete removes a dataset directory and everything in it.
func (fs *FSStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	dir := fs.DatasetDir(name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Name: name}
	} else if err != nil {
		return fmt.Errorf("failed to stat dataset directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove dataset directory: %w", err)
	}

	slog.Debug("Dataset deleted", "name", name, "path", dir)
	return nil
}

var _ Store = (*FSStore)(nil)
