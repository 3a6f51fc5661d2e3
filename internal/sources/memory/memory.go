package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"cashbook/internal/core"
	"cashbook/internal/sources"
)

// Seed file names read by NewFromDir.
const (
	OrdersFile          = "orders.json"
	ReceiptsFile        = "receipts.json"
	IncomeVouchersFile  = "income_vouchers.json"
	ExpenseVouchersFile = "expense_vouchers.json"
	SettingsFile        = "settings.json"
)

// Store keeps source records in memory. Records are replaced by their key
// (id, else number) on upsert and returned in insertion order. Records with
// neither are always appended.
type Store struct {
	mu             sync.RWMutex
	orders         []core.SalesOrder
	receipts       []core.PurchaseReceipt
	vouchers       map[core.Kind][]core.Voucher
	useCreatedDate bool
}

var (
	_ sources.Backend = (*Store)(nil)
	_ sources.Writer  = (*Store)(nil)
)

func New() *Store {
	return &Store{vouchers: map[core.Kind][]core.Voucher{}}
}

type settingsFile struct {
	UseCreatedDate bool `json:"useCreatedDate"`
}

// NewFromDir seeds a store from the JSON files in dir. Missing files are
// treated as empty collections.
func NewFromDir(dir string) (*Store, error) {
	s := New()

	var orders []core.SalesOrder
	if err := readJSON(filepath.Join(dir, OrdersFile), &orders); err != nil {
		return nil, err
	}
	var receipts []core.PurchaseReceipt
	if err := readJSON(filepath.Join(dir, ReceiptsFile), &receipts); err != nil {
		return nil, err
	}
	var income, expense []core.Voucher
	if err := readJSON(filepath.Join(dir, IncomeVouchersFile), &income); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ExpenseVouchersFile), &expense); err != nil {
		return nil, err
	}
	var settings settingsFile
	if err := readJSON(filepath.Join(dir, SettingsFile), &settings); err != nil {
		return nil, err
	}

	s.AddOrders(orders...)
	s.AddReceipts(receipts...)
	s.AddVouchers(core.Income, income...)
	s.AddVouchers(core.Expense, expense...)
	s.useCreatedDate = settings.UseCreatedDate
	return s, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *Store) AddOrders(orders ...core.SalesOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range orders {
		s.orders = upsert(s.orders, o, core.SalesOrder.Key)
	}
}

func (s *Store) AddReceipts(receipts ...core.PurchaseReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range receipts {
		s.receipts = upsert(s.receipts, r, core.PurchaseReceipt.Key)
	}
}

func (s *Store) AddVouchers(kind core.Kind, vouchers ...core.Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vouchers {
		s.vouchers[kind] = upsert(s.vouchers[kind], v, core.Voucher.Key)
	}
}

func upsert[T any](list []T, item T, key func(T) string) []T {
	k := key(item)
	if k == "" {
		return append(list, item)
	}
	for i := range list {
		if key(list[i]) == k {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func (s *Store) ListOrders(_ context.Context, store string) ([]core.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SalesOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if sources.MatchStore(store, o.StoreCode) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) ListReceipts(_ context.Context, store string) ([]core.PurchaseReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PurchaseReceipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		if sources.MatchStore(store, r.StoreCode) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListVouchers(_ context.Context, kind core.Kind) ([]core.Voucher, error) {
	if kind != core.Income && kind != core.Expense {
		return nil, core.ErrInvalidKind
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Voucher(nil), s.vouchers[kind]...), nil
}

func (s *Store) UseCreatedDate(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.useCreatedDate, nil
}

func (s *Store) UpsertOrders(_ context.Context, orders []core.SalesOrder) (int, error) {
	s.AddOrders(orders...)
	return len(orders), nil
}

func (s *Store) UpsertReceipts(_ context.Context, receipts []core.PurchaseReceipt) (int, error) {
	s.AddReceipts(receipts...)
	return len(receipts), nil
}

func (s *Store) UpsertVouchers(_ context.Context, kind core.Kind, vouchers []core.Voucher) (int, error) {
	if kind != core.Income && kind != core.Expense {
		return 0, core.ErrInvalidKind
	}
	s.AddVouchers(kind, vouchers...)
	return len(vouchers), nil
}

func (s *Store) SetUseCreatedDate(_ context.Context, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useCreatedDate = v
	return nil
}
