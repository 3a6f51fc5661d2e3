package backend

import (
	"errors"
	"fmt"

	"cashbook/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                backendType,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleOrdersSheet:   appConfig.GoogleOrdersSheet,
		GoogleReceiptsSheet: appConfig.GoogleReceiptsSheet,
		GoogleVouchersSheet: appConfig.GoogleVouchersSheet,
		GoogleSettingsSheet: appConfig.GoogleSettingsSheet,
		DataDirectory:       appConfig.DataDir,
		UseCreatedDate:      appConfig.UseCreatedDate,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleOrdersSheet == "" || c.GoogleReceiptsSheet == "" || c.GoogleVouchersSheet == "" {
			return errors.New("orders, receipts and vouchers sheet names are required for sheets backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data"; missing files read as empty.
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend}
}
