package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.1" }, nil)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusBadRequest)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ledger", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 1 || metrics.ErrorResponses != 1 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestMiddlewareReusesIncomingID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	incoming := uuid.NewString()

	var seen string
	h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	for _, tt := range []struct {
		header string
		reused bool
	}{
		{incoming, true},
		{"not-a-uuid", false},
	} {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Header.Set(HeaderRequestID, tt.header)
		h.ServeHTTP(httptest.NewRecorder(), r)
		if (seen == tt.header) != tt.reused {
			t.Errorf("header %q: got id %q, reused=%v", tt.header, seen, tt.reused)
		}
	}
}

func TestAverageResponseTime(t *testing.T) {
	if (Metrics{}).AverageResponseTime() != 0 {
		t.Error("empty metrics should average to zero")
	}
	if got := (Metrics{TotalRequests: 4, TotalDurationUs: 100}).AverageResponseTime(); got != 25 {
		t.Errorf("AverageResponseTime() = %d, want 25", got)
	}
}
