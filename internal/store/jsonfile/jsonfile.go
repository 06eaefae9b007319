// Package jsonfile stores the process collection as one JSON array in a file.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"processos/internal/core"
	"processos/internal/store"
)

// defaultFileMode applies to a data file that does not exist yet.
const defaultFileMode fs.FileMode = 0o644

var _ store.Repository = (*Store)(nil)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the collection. A missing or empty file is an empty collection.
// A record that fails to decode aborts the load; the error names its index.
func (s *Store) Load(ctx context.Context) ([]core.Process, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Process{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Process{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	processes := make([]core.Process, 0, len(raw))
	for i, r := range raw {
		var p core.Process
		if err := json.Unmarshal(r, &p); err != nil {
			return nil, fmt.Errorf("decode record %d of %s: %w", i, s.path, err)
		}
		processes = append(processes, p)
	}

	slog.DebugContext(ctx, "Processes loaded from JSON file", "path", s.path, "count", len(processes))
	return processes, nil
}

// Save writes the whole collection to a temporary file and renames it over
// the previous one.
func (s *Store) Save(ctx context.Context, processes []core.Process) error {
	if processes == nil {
		processes = []core.Process{}
	}
	data, err := json.MarshalIndent(processes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode processes: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	mode := defaultFileMode
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	slog.DebugContext(ctx, "Processes saved to JSON file", "path", s.path, "count", len(processes))
	return nil
}
