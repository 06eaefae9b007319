package backend

import (
	"fmt"
	"time"

	"processos/internal/config"
	gsheet "processos/internal/sheets/google"
)

// Type names the storage backend
type Type string

const (
	MemoryBackend Type = config.BackendMemory
	JSONBackend   Type = config.BackendJSON
	SQLiteBackend Type = config.BackendSQLite
	SheetsBackend Type = config.BackendSheets
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, JSONBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	JSONDataPath string
	SQLiteDBPath string
	Sheets       gsheet.Config

	// SheetsCacheTTL keeps Sheets reads for this long; zero disables it.
	SheetsCacheTTL time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		JSONDataPath: appConfig.JSONDataPath,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		Sheets: gsheet.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			SheetName:          appConfig.GoogleSheetName,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		},
		SheetsCacheTTL: appConfig.SheetsCacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case JSONBackend:
		if c.JSONDataPath == "" {
			return fmt.Errorf("JSON data path is required for json backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// Nothing to configure
	}

	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, JSONBackend, SQLiteBackend, SheetsBackend}
}
