package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
	"cashbook/internal/middleware/ratelimit"
	"cashbook/internal/services"
	"cashbook/internal/sources/memory"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func testStore() *memory.Store {
	s := memory.New()
	s.AddOrders(
		core.SalesOrder{ID: 1, OrderNumber: "SO-1", Status: "paid", Total: "100000", StoreCode: "HN", PaidAt: "2024-04-20"},
		core.SalesOrder{ID: 2, OrderNumber: "SO-2", Status: "paid", Total: "80000", StoreCode: "HN", PaidAt: "2024-05-03",
			PaymentMethod: `[{"method":"cash","amount":50000},{"method":"card","amount":30000}]`},
		core.SalesOrder{ID: 3, OrderNumber: "SO-3", Status: "paid", Total: "20000", StoreCode: "SG", PaidAt: "2024-05-04"},
	)
	s.AddReceipts(core.PurchaseReceipt{ID: 10, ReceiptNumber: "PR-10", IsPaid: true, PaymentAmount: "30000", StoreCode: "HN", PurchaseDate: "2024-05-05"})
	s.AddVouchers(core.Expense, core.Voucher{ID: 7, VoucherNumber: "EV-7", Date: "2024-05-06", Amount: "5000"})
	return s
}

func newTestServer(t *testing.T, lr LedgerReader, opts Options) *Server {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	srv := NewServer(":0", lr, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

type ledgerBody struct {
	Query struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Store string `json:"store"`
		Type  string `json:"type"`
	} `json:"query"`
	Summary      core.Summary     `json:"summary"`
	Counts       map[string]int   `json:"counts"`
	Transactions []map[string]any `json:"transactions"`
}

type errBody struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestLedgerEndpoint(t *testing.T) {
	svc := services.NewLedgerService(testStore(), services.LedgerOptions{CacheTTL: time.Minute, Now: func() time.Time { return testNow }}, nil)
	srv := newTestServer(t, svc, Options{})

	rr := serve(srv, http.MethodGet, "/api/ledger?from=2024-05-01&to=2024-05-31")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Request-ID") == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("trace or security headers missing")
	}

	body := decode[ledgerBody](t, rr)
	if body.Query.From != "2024-05-01" || body.Query.To != "2024-05-31" || body.Query.Store != core.All {
		t.Errorf("query = %+v", body.Query)
	}
	if !body.Summary.OpeningBalance.Equal(decimal.NewFromInt(100000)) || !body.Summary.ClosingBalance.Equal(decimal.NewFromInt(165000)) {
		t.Errorf("summary = %+v", body.Summary)
	}
	if len(body.Transactions) != 4 {
		t.Errorf("got %d transactions, want 4", len(body.Transactions))
	}
	if body.Counts["sales_order"] != 2 || body.Counts["income_voucher"] != 0 {
		t.Errorf("counts = %v", body.Counts)
	}
}

func TestLedgerEndpointFilters(t *testing.T) {
	svc := services.NewLedgerService(testStore(), services.LedgerOptions{Now: func() time.Time { return testNow }}, nil)
	srv := newTestServer(t, svc, Options{})

	rr := serve(srv, http.MethodGet, "/api/ledger?from=2024-05-01&to=2024-05-31&store=HN&method=cash&type=sales_order")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decode[ledgerBody](t, rr)
	if len(body.Transactions) != 1 || body.Transactions[0]["id"] != "SO-2" || body.Transactions[0]["amount"] != "50000" {
		t.Errorf("transactions = %v", body.Transactions)
	}
	if !body.Summary.OpeningBalance.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("opening must ignore filters, got %s", body.Summary.OpeningBalance)
	}
}

func TestSummaryEndpointDefaultsWindow(t *testing.T) {
	svc := services.NewLedgerService(testStore(), services.LedgerOptions{}, nil)
	srv := newTestServer(t, svc, Options{})

	rr := serve(srv, http.MethodGet, "/api/ledger/summary")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), `"transactions"`) {
		t.Error("summary must not list transactions")
	}
	body := decode[ledgerBody](t, rr)
	if body.Query.From != "2024-06-01" || body.Query.To != "2024-06-01" {
		t.Errorf("default window = %s..%s", body.Query.From, body.Query.To)
	}
	if !body.Summary.ClosingBalance.Equal(decimal.NewFromInt(165000)) {
		t.Errorf("closing = %s, want 165000", body.Summary.ClosingBalance)
	}
}

type failingLedger struct{ err error }

func (f failingLedger) Report(context.Context, ledger.Query) (ledger.Report, error) {
	return ledger.Report{}, f.err
}

func TestLedgerEndpointErrors(t *testing.T) {
	svc := services.NewLedgerService(testStore(), services.LedgerOptions{}, nil)
	srv := newTestServer(t, svc, Options{})
	broken := newTestServer(t, failingLedger{err: errors.New("dial tcp: connection refused")}, Options{})

	tests := []struct {
		name   string
		srv    *Server
		method string
		target string
		want   int
	}{
		{"bad date", srv, http.MethodGet, "/api/ledger?from=yesterday", http.StatusBadRequest},
		{"inverted window", srv, http.MethodGet, "/api/ledger?from=2024-05-31&to=2024-05-01", http.StatusBadRequest},
		{"unknown type", srv, http.MethodGet, "/api/ledger?from=2024-05-01&to=2024-05-31&type=invoice", http.StatusBadRequest},
		{"text too long", srv, http.MethodGet, "/api/ledger?q=" + strings.Repeat("x", 200), http.StatusBadRequest},
		{"wrong method", srv, http.MethodPost, "/api/ledger", http.StatusMethodNotAllowed},
		{"unknown path", srv, http.MethodGet, "/api/orders", http.StatusNotFound},
		{"source failure", broken, http.MethodGet, "/api/ledger", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(tt.srv, tt.method, tt.target)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
			body := decode[errBody](t, rr)
			if body.Status != tt.want || body.Error == "" {
				t.Errorf("error body = %+v", body)
			}
			if tt.want == http.StatusBadGateway && strings.Contains(body.Error, "connection refused") {
				t.Error("backend errors must not leak to clients")
			}
			if tt.want == http.StatusMethodNotAllowed && rr.Header().Get("Allow") == "" {
				t.Error("missing Allow header")
			}
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	ok := newTestServer(t, failingLedger{}, Options{Ready: func(context.Context) error { return nil }})
	down := newTestServer(t, failingLedger{}, Options{Ready: func(context.Context) error { return errors.New("db locked") }})

	if rr := serve(ok, http.MethodGet, "/healthz"); rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rr.Code)
	}
	if rr := serve(ok, http.MethodGet, "/readyz"); rr.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rr.Code)
	}
	if rr := serve(down, http.MethodGet, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	svc := services.NewLedgerService(testStore(), services.LedgerOptions{}, nil)
	srv := newTestServer(t, svc, Options{RateLimit: ratelimit.Config{RequestsPerMinute: 1}})

	if rr := serve(srv, http.MethodGet, "/api/ledger/summary"); rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rr.Code)
	}
	rr := serve(srv, http.MethodGet, "/api/ledger/summary")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
	if body := decode[errBody](t, rr); body.RequestID == "" {
		t.Error("rate limit response should carry the request id")
	}
	if rr := serve(srv, http.MethodGet, "/healthz"); rr.Code != http.StatusOK {
		t.Error("health checks are not rate limited")
	}
}

func TestStatsEndpoint(t *testing.T) {
	svc := services.NewLedgerService(testStore(), services.LedgerOptions{CacheTTL: time.Minute}, nil)
	srv := newTestServer(t, svc, Options{})

	serve(srv, http.MethodGet, "/api/ledger/summary")
	serve(srv, http.MethodGet, "/api/ledger/summary")

	rr := serve(srv, http.MethodGet, "/api/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Requests struct {
			TotalRequests int64 `json:"totalRequests"`
		} `json:"requests"`
		Caches map[string]struct {
			Hits uint64 `json:"hits"`
		} `json:"caches"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Requests.TotalRequests != 2 {
		t.Errorf("total requests = %d, want 2", body.Requests.TotalRequests)
	}
	if body.Caches["reports"].Hits != 1 {
		t.Errorf("report cache hits = %d, want 1", body.Caches["reports"].Hits)
	}
}
