package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cashbook/internal/core"
)

func TestStoreListAndUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddOrders(
		core.SalesOrder{ID: 1, Status: "paid", StoreCode: "HN"},
		core.SalesOrder{ID: 2, Status: "paid", StoreCode: "SG"},
	)
	s.AddOrders(core.SalesOrder{ID: 1, Status: "refunded", StoreCode: "HN"})

	all, err := s.ListOrders(ctx, core.All)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListOrders(all) = %v, %v", all, err)
	}
	if all[0].Status != "refunded" {
		t.Errorf("upsert did not replace order 1: %+v", all[0])
	}

	hn, _ := s.ListOrders(ctx, "HN")
	if len(hn) != 1 || hn[0].ID != 1 {
		t.Errorf("ListOrders(HN) = %+v", hn)
	}

	n, err := s.UpsertVouchers(ctx, core.Expense, []core.Voucher{{ID: 5}, {ID: 6}})
	if err != nil || n != 2 {
		t.Fatalf("UpsertVouchers = %d, %v", n, err)
	}
	if _, err := s.UpsertVouchers(ctx, core.Kind("other"), nil); err == nil {
		t.Error("unknown kind should be rejected")
	}
	exp, _ := s.ListVouchers(ctx, core.Expense)
	inc, _ := s.ListVouchers(ctx, core.Income)
	if len(exp) != 2 || len(inc) != 0 {
		t.Errorf("vouchers: expense=%d income=%d", len(exp), len(inc))
	}
}

func TestStoreKeysRecordsWithoutID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	orders := `[
		{"orderNumber":"DH-001","status":"paid","total":"100","storeCode":"HN","paidAt":"2024-05-01"},
		{"orderNumber":"DH-002","status":"paid","total":"200","storeCode":"HN","paidAt":"2024-05-02"}
	]`
	if err := os.WriteFile(filepath.Join(dir, OrdersFile), []byte(orders), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir() error = %v", err)
	}

	got, _ := s.ListOrders(ctx, core.All)
	if len(got) != 2 {
		t.Fatalf("got %d orders keyed by number, want 2", len(got))
	}

	s.AddOrders(core.SalesOrder{OrderNumber: "DH-001", Status: "refunded"})
	got, _ = s.ListOrders(ctx, core.All)
	if len(got) != 2 || got[0].Status != "refunded" {
		t.Errorf("number-keyed upsert = %+v", got)
	}

	s.AddReceipts(core.PurchaseReceipt{ReceiptNumber: "PN-1"}, core.PurchaseReceipt{ReceiptNumber: "PN-2"})
	s.AddVouchers(core.Expense, core.Voucher{VoucherNumber: "PC-1"}, core.Voucher{VoucherNumber: "PC-2"})
	s.AddVouchers(core.Expense, core.Voucher{Amount: "1"}, core.Voucher{Amount: "2"})
	receipts, _ := s.ListReceipts(ctx, core.All)
	vouchers, _ := s.ListVouchers(ctx, core.Expense)
	if len(receipts) != 2 || len(vouchers) != 4 {
		t.Errorf("receipts=%d vouchers=%d, want 2 and 4", len(receipts), len(vouchers))
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite(OrdersFile, `[{"id":1,"status":"paid","total":"100000","storeCode":"HN","paymentMethod":[{"method":"cash","amount":100000}]}]`)
	mustWrite(IncomeVouchersFile, `[{"id":9,"date":"2024-05-10","amount":15000}]`)
	mustWrite(SettingsFile, `{"useCreatedDate":true}`)

	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir() error = %v", err)
	}
	ctx := context.Background()

	orders, _ := s.ListOrders(ctx, core.All)
	if len(orders) != 1 || orders[0].PaymentMethod.String() != `[{"method":"cash","amount":100000}]` {
		t.Errorf("orders = %+v", orders)
	}
	receipts, _ := s.ListReceipts(ctx, core.All)
	if len(receipts) != 0 {
		t.Errorf("missing receipts file should give no receipts, got %d", len(receipts))
	}
	if v, _ := s.UseCreatedDate(ctx); !v {
		t.Error("settings not loaded")
	}

	mustWrite(ReceiptsFile, `{not json`)
	if _, err := NewFromDir(dir); err == nil {
		t.Error("expected decode error")
	}
}
