package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cashbook/internal/config"
	"cashbook/internal/core"
	"cashbook/internal/sources"
	"cashbook/internal/sources/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	on := true
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", DataDir: "/srv/data", UseCreatedDate: &on})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.DataDirectory != "/srv/data" || cfg.UseCreatedDate == nil || !*cfg.UseCreatedDate {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sheets without id", Config{Type: SheetsBackend, GoogleOrdersSheet: "o", GoogleReceiptsSheet: "r", GoogleVouchersSheet: "v"}, true},
		{"sheets without tabs", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, true},
		{"sheets", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id", GoogleOrdersSheet: "o", GoogleReceiptsSheet: "r", GoogleVouchersSheet: "v"}, false},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, memory.OrdersFile), []byte(`[{"id":1,"status":"paid","total":"10","storeCode":"HN"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if res.Writer == nil {
		t.Error("memory backend should accept imports")
	}
	if res.Ready != nil {
		t.Error("memory backend has no readiness probe")
	}
	orders, err := res.Backend.ListOrders(context.Background(), core.All)
	if err != nil || len(orders) != 1 {
		t.Errorf("ListOrders() = %v, %v", orders, err)
	}
}

func TestCreateSQLiteBackendWithOverride(t *testing.T) {
	off := false
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "cashbook.db"), UseCreatedDate: &off}

	res, err := NewFactory(nil).CreateBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if res.Ready == nil || res.Ready(context.Background()) != nil {
		t.Error("sqlite backend should be ready")
	}
	if err := res.Writer.SetUseCreatedDate(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Backend.(sources.SettingsOverride); !ok {
		t.Fatalf("backend = %T, want SettingsOverride", res.Backend)
	}
	if v, _ := res.Backend.UseCreatedDate(context.Background()); v {
		t.Error("override should win over the stored setting")
	}
}

func TestBackendResultCloseNil(t *testing.T) {
	var res *BackendResult
	if err := res.Close(); err != nil {
		t.Errorf("Close() on nil result = %v", err)
	}
}
