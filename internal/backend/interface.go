package backend

import (
	"context"

	"cashbook/internal/sources"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend sources.Backend
	// Writer is set for backends that accept imports.
	Writer  sources.Writer
	Cleanup CleanupFunc
	// Ready probes the backend; nil means always ready.
	Ready func(ctx context.Context) error
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleOrdersSheet   string
	GoogleReceiptsSheet string
	GoogleVouchersSheet string
	GoogleSettingsSheet string

	// Memory
	DataDirectory string

	// UseCreatedDate, when set, replaces the backend's own setting.
	UseCreatedDate *bool
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
