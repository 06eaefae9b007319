package backend

import (
	"context"
	"fmt"
	"log/slog"

	"processos/internal/cache"
	gsheet "processos/internal/sheets/google"
	"processos/internal/storage"
	"processos/internal/store"
	"processos/internal/store/jsonfile"
	"processos/internal/store/memory"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// Result contains the repository and its cleanup function
type Result struct {
	Repository store.Repository
	Cleanup    CleanupFunc
}

// Close runs Cleanup when set
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates repositories based on configuration
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create opens the configured repository
func (f *Factory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case JSONBackend:
		f.logger.Info("Initialized JSON file backend", "path", config.JSONDataPath)
		return &Result{Repository: jsonfile.New(config.JSONDataPath)}, nil
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &Result{Repository: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *Factory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Repository: repo,
		Cleanup:    repo.Close,
	}, nil
}

func (f *Factory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	s, err := gsheet.New(ctx, config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.Sheets.SpreadsheetID,
		"cache_ttl", config.SheetsCacheTTL)

	return &Result{Repository: cache.NewRepository(s, config.SheetsCacheTTL)}, nil
}
