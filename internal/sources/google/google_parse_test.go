package google

import (
	"context"
	"errors"
	"testing"

	"cashbook/internal/core"
	"cashbook/internal/sources"
)

func TestParseOrders(t *testing.T) {
	values := [][]any{
		{"ID", "OrderNumber", "Status", "Total", "PaymentMethod", "StoreCode", "PaidAt"},
		{float64(1), "SO-1", "paid", float64(1500000), `[{"method":"cash","amount":1500000}]`, "HN", "2024-05-01"},
		{},
		{"", "SO-X", "paid", float64(1)},
		{"2", "SO-2", "pending"},
	}

	got, err := parseOrders(values)
	if err != nil {
		t.Fatalf("parseOrders() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d orders, want 2", len(got))
	}
	if got[0].Total != "1500000" {
		t.Errorf("large totals must not use exponent notation, got %q", got[0].Total)
	}
	if got[0].PaymentMethod.String() != `[{"method":"cash","amount":1500000}]` || got[0].PaidAt != "2024-05-01" {
		t.Errorf("unexpected order %+v", got[0])
	}
	if got[1].ID != 2 || got[1].StoreCode != "" {
		t.Errorf("short rows should leave missing cells empty, got %+v", got[1])
	}
}

func TestParseOrdersMissingHeader(t *testing.T) {
	_, err := parseOrders([][]any{{"OrderNumber", "Total"}})
	if err == nil {
		t.Fatal("expected header error")
	}
}

func TestParseReceipts(t *testing.T) {
	values := [][]any{
		{"id", "isPaid", "paymentAmount", "supplierId", "purchaseDate"},
		{"10", true, "40000", float64(7), "2024-05-03"},
		{"11", "FALSE", "5"},
		{"12", "x", "6"},
	}
	got, err := parseReceipts(values)
	if err != nil {
		t.Fatalf("parseReceipts() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d receipts", len(got))
	}
	if !got[0].IsPaid || got[0].SupplierID != 7 || got[0].PaymentAmount != "40000" {
		t.Errorf("unexpected receipt %+v", got[0])
	}
	if got[1].IsPaid || !got[2].IsPaid {
		t.Errorf("isPaid parsing: %v %v", got[1].IsPaid, got[2].IsPaid)
	}
}

func TestParseVouchersByKind(t *testing.T) {
	values := [][]any{
		{"id", "kind", "date", "amount", "account"},
		{"1", "thu", "2024-05-01", "100", "cash"},
		{"2", "expense", "2024-05-02", "50", "bank"},
		{"3", "income", "", "10", ""},
		{"4", "transfer", "2024-05-03", "1", ""},
	}

	income, err := parseVouchers(values, core.Income)
	if err != nil {
		t.Fatalf("parseVouchers() error = %v", err)
	}
	if len(income) != 2 || income[0].ID != 1 || income[1].ID != 3 {
		t.Errorf("income vouchers = %+v", income)
	}

	expense, _ := parseVouchers(values, core.Expense)
	if len(expense) != 1 || expense[0].Account != "bank" {
		t.Errorf("expense vouchers = %+v", expense)
	}
}

func TestParseUseCreatedDate(t *testing.T) {
	tests := []struct {
		values [][]any
		want   bool
	}{
		{[][]any{{"useCreatedDate", true}}, true},
		{[][]any{{"other", "x"}, {"UseCreatedDate", "TRUE"}}, true},
		{[][]any{{"useCreatedDate", "no"}}, false},
		{nil, false},
	}
	for i, tt := range tests {
		if got := parseUseCreatedDate(tt.values); got != tt.want {
			t.Errorf("case %d: got %v, want %v", i, got, tt.want)
		}
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{cfg: Config{SpreadsheetID: "test", OrdersSheet: "Orders"}}
	if _, err := c.ListOrders(context.Background(), core.All); !errors.Is(err, sources.ErrNotConfigured) {
		t.Errorf("ListOrders() error = %v, want ErrNotConfigured", err)
	}
	if v, err := c.UseCreatedDate(context.Background()); err != nil || v {
		t.Errorf("no settings sheet should give false, nil; got %v, %v", v, err)
	}
}

func TestNewMissingSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}
