package http

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"cashbook/internal/core"
)

func TestParseLedgerQuery(t *testing.T) {
	now := time.Date(2024, 5, 17, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		values    url.Values
		wantFrom  string
		wantTo    string
		wantStore string
		wantType  string
		wantText  string
		wantErr   bool
	}{
		{
			name:      "defaults to month to date",
			values:    url.Values{},
			wantFrom:  "2024-05-01",
			wantTo:    "2024-05-17",
			wantStore: core.All,
			wantType:  core.All,
		},
		{
			name:      "explicit window and filters",
			values:    url.Values{"from": {"2024-04-01"}, "to": {"2024-04-30"}, "store": {" HN "}, "type": {"Sales_Order"}, "q": {"so-1\x00"}},
			wantFrom:  "2024-04-01",
			wantTo:    "2024-04-30",
			wantStore: "HN",
			wantType:  "sales_order",
			wantText:  "so-1",
		},
		{
			name:      "only to given",
			values:    url.Values{"to": {"2024-03-09T10:00:00Z"}},
			wantFrom:  "2024-03-01",
			wantTo:    "2024-03-09",
			wantStore: core.All,
			wantType:  core.All,
		},
		{name: "bad from", values: url.Values{"from": {"1st of May"}}, wantErr: true},
		{name: "bad to", values: url.Values{"to": {"2024-13-45"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseLedgerQuery(tt.values, now)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDate) {
					t.Fatalf("error = %v, want ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLedgerQuery() error = %v", err)
			}
			if q.Start.String() != tt.wantFrom || q.End.String() != tt.wantTo {
				t.Errorf("window = %s..%s, want %s..%s", q.Start, q.End, tt.wantFrom, tt.wantTo)
			}
			if q.Store != tt.wantStore || q.VoucherType != tt.wantType || q.Text != tt.wantText {
				t.Errorf("filters = store %q type %q text %q", q.Store, q.VoucherType, q.Text)
			}
			if q.Method != core.All {
				t.Errorf("method = %q, want all", q.Method)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  cash ", "cash"},
		{"a\x00b\x07c", "abc"},
		{"line\tone", "line\tone"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
