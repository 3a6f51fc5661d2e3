// Package sources declares the ports the ledger service reads its source
// records through. Adapters live in the subpackages and in internal/storage.
package sources

import (
	"context"
	"errors"

	"cashbook/internal/core"
)

// ErrNotConfigured is returned by adapters built without their backing service.
var ErrNotConfigured = errors.New("source not configured")

// Ports for outbound adapters. A store of core.All (or "") lists every store.
type (
	OrderReader interface {
		ListOrders(ctx context.Context, store string) ([]core.SalesOrder, error)
	}

	ReceiptReader interface {
		ListReceipts(ctx context.Context, store string) ([]core.PurchaseReceipt, error)
	}

	// VoucherReader lists the manual vouchers of one direction.
	VoucherReader interface {
		ListVouchers(ctx context.Context, kind core.Kind) ([]core.Voucher, error)
	}

	// SettingsReader exposes the general settings that shape normalization.
	SettingsReader interface {
		UseCreatedDate(ctx context.Context) (bool, error)
	}

	Backend interface {
		OrderReader
		ReceiptReader
		VoucherReader
		SettingsReader
	}

	// Writer stores imported records, replacing any with the same id.
	Writer interface {
		UpsertOrders(ctx context.Context, orders []core.SalesOrder) (int, error)
		UpsertReceipts(ctx context.Context, receipts []core.PurchaseReceipt) (int, error)
		UpsertVouchers(ctx context.Context, kind core.Kind, vouchers []core.Voucher) (int, error)
		SetUseCreatedDate(ctx context.Context, v bool) error
	}
)

// SettingsOverride forces the created-date setting regardless of what the
// wrapped backend reports.
type SettingsOverride struct {
	Backend
	Value bool
}

func (s SettingsOverride) UseCreatedDate(context.Context) (bool, error) {
	return s.Value, nil
}

// AllStores reports whether filter selects every store.
func AllStores(filter string) bool {
	return filter == "" || filter == core.All
}

// MatchStore reports whether code passes the store filter.
func MatchStore(filter, code string) bool {
	return AllStores(filter) || filter == code
}
