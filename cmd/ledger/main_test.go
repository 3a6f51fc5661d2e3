package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		vtype   string
		wantErr error
	}{
		{name: "valid", from: "2024-05-01", to: "2024-05-31", vtype: "all"},
		{name: "bad from", from: "May", to: "2024-05-31", vtype: "all", wantErr: core.ErrInvalidDate},
		{name: "bad to", from: "2024-05-01", to: "", vtype: "all", wantErr: core.ErrInvalidDate},
		{name: "inverted", from: "2024-05-31", to: "2024-05-01", vtype: "all", wantErr: core.ErrInvalidWindow},
		{name: "unknown type", from: "2024-05-01", to: "2024-05-31", vtype: "invoice", wantErr: core.ErrInvalidVoucherType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parseQuery(tt.from, tt.to, "", "", tt.vtype, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQuery() error = %v", err)
			}
			if q.Store != core.All || q.Method != core.All {
				t.Errorf("filters not defaulted: %+v", q)
			}
		})
	}
}

func TestWriteTable(t *testing.T) {
	r := ledger.Report{
		Query: ledger.Query{Start: core.NewDate(2024, 5, 1), End: core.NewDate(2024, 5, 31), Store: "HN", Method: core.All},
		Transactions: []core.Transaction{{
			ID:             "SO-2",
			Date:           core.NewDate(2024, 5, 3),
			Kind:           core.Income,
			Amount:         decimal.NewFromInt(50000),
			VoucherType:    core.SalesOrderType,
			RunningBalance: decimal.NewFromInt(150000),
			Category:       "Sales",
		}},
		Summary: core.Summary{
			OpeningBalance: decimal.NewFromInt(100000),
			TotalIncome:    decimal.NewFromInt(50000),
			TotalExpense:   decimal.Zero,
			ClosingBalance: decimal.NewFromInt(150000),
		},
	}

	var buf bytes.Buffer
	if err := writeTable(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2024-05-01 .. 2024-05-31", "SO-2", "sales_order", "150000", "Closing"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
