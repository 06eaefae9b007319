package store

import (
	"context"

	"processos/internal/core"
)

// Ports for outbound adapters.
type (
	// Repository loads and saves the whole process collection at once.
	Repository interface {
		// Load returns every process; an empty collection when nothing was saved yet.
		Load(ctx context.Context) ([]core.Process, error)
		// Save replaces all persisted state with processes.
		Save(ctx context.Context, processes []core.Process) error
	}

	// Closer is implemented by repositories holding connections.
	Closer interface {
		Close() error
	}
)
