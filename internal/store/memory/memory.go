package memory

import (
	"context"
	"sync"

	"processos/internal/core"
	"processos/internal/store"
)

var _ store.Repository = (*Store)(nil)

// Store keeps the collection in process memory. Load and Save copy so that
// callers never share installment slices with the store.
type Store struct {
	mu        sync.Mutex
	processes []core.Process
	saves     int
}

func New(seed ...core.Process) *Store {
	return &Store{processes: core.CloneAll(seed)}
}

// Load returns a copy of the stored processes.
func (s *Store) Load(_ context.Context) ([]core.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := core.CloneAll(s.processes)
	if out == nil {
		out = []core.Process{}
	}
	return out, nil
}

// Save replaces the stored processes.
func (s *Store) Save(_ context.Context, processes []core.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes = core.CloneAll(processes)
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
