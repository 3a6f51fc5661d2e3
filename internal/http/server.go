package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"cashbook/internal/cache"
	"cashbook/internal/core"
	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
	"cashbook/internal/middleware/ratelimit"
	"cashbook/internal/middleware/security"
	"cashbook/internal/middleware/trace"
)

const (
	reportTimeout = 15 * time.Second
	readyTimeout  = 2 * time.Second
)

// LedgerReader produces ledger reports.
type LedgerReader interface {
	Report(ctx context.Context, q ledger.Query) (ledger.Report, error)
}

// cacheStatser is implemented by readers that cache reports.
type cacheStatser interface {
	CacheStats() map[string]cache.Stats
}

// ReadinessCheck reports whether the backing store can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	Ready     ReadinessCheck
	// Now defaults the report window; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger  LedgerReader
	ready   ReadinessCheck
	now     func() time.Time
	logger  *applog.StructuredLogger
	limiter *ratelimit.Limiter
	detect  *security.Detector
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, lr LedgerReader, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		ledger:  lr,
		ready:   opts.Ready,
		now:     opts.Now,
		logger:  applog.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		detect:  security.NewDetector(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.tracer = trace.NewMiddleware(s.detect.ExtractClientIP, logger)

	limited := s.limiter.Middleware(s.detect.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").
			RequestID(trace.RequestID(r)).
			Write(w)
	})

	mux := http.NewServeMux()
	mux.Handle("/api/ledger", limited(http.HandlerFunc(s.handleLedger)))
	mux.Handle("/api/ledger/summary", limited(http.HandlerFunc(s.handleSummary)))
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").RequestID(trace.RequestID(r)).Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = headers.Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	h = s.detect.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// summaryResponse is the body of /api/ledger/summary.
type summaryResponse struct {
	Query       ledger.Query             `json:"query"`
	Summary     core.Summary             `json:"summary"`
	Counts      map[core.VoucherType]int `json:"counts"`
	GeneratedAt time.Time                `json:"generatedAt"`
}

// ledgerResponse is the body of /api/ledger.
type ledgerResponse struct {
	summaryResponse
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	txs := report.Transactions
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewJSONResponse().Body(ledgerResponse{summaryResponse: toSummary(report), Transactions: txs}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(toSummary(report)).Write(w)
}

func toSummary(r ledger.Report) summaryResponse {
	return summaryResponse{
		Query:       r.Query,
		Summary:     r.Summary,
		Counts:      r.Counts(),
		GeneratedAt: r.GeneratedAt,
	}
}

// report runs the shared part of the ledger endpoints. It writes the error
// response itself and reports false when the handler should stop.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (ledger.Report, bool) {
	if b := requireGET(r); b != nil {
		b.RequestID(trace.RequestID(r)).Write(w)
		return ledger.Report{}, false
	}

	start := s.now()
	q, err := ParseLedgerQuery(r.URL.Query(), start)
	if err != nil {
		s.writeError(w, r, err, applog.NewFields())
		return ledger.Report{}, false
	}

	fields := applog.NewFields().
		WithRequestID(trace.RequestID(r)).
		WithLedgerQuery(q.Store, q.Method, q.VoucherType, q.Start.String(), q.End.String())

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	report, err := s.ledger.Report(ctx, q)
	if err != nil {
		s.writeError(w, r, err, fields)
		return ledger.Report{}, false
	}

	s.logger.LogReport(ctx, fields, len(report.Transactions), report.Summary.ClosingBalance.String(), report.GeneratedAt.Before(start))
	return report, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fields applog.LogFields) {
	status := statusForError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.LogError(r.Context(), "Ledger report failed", err, applog.ComponentHTTP, applog.OpReport, fields)
		msg = "ledger sources unavailable"
	}
	ErrorResponse(status, msg).RequestID(trace.RequestID(r)).Write(w)
}

func requireGET(r *http.Request) *JSONResponseBuilder {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil
	}
	return MethodNotAllowedError(strings.Join([]string{http.MethodGet, http.MethodHead}, ", "))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if b := requireGET(r); b != nil {
		b.Write(w)
		return
	}
	body := map[string]any{
		"requests":  s.tracer.GetMetrics(),
		"rateLimit": s.limiter.GetMetrics(),
		"security":  s.detect.GetMetrics(),
	}
	if cs, ok := s.ledger.(cacheStatser); ok {
		body["caches"] = cs.CacheStats()
	}
	NewJSONResponse().Body(body).Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.LogError(ctx, "Readiness check failed", err, applog.ComponentHTTP, applog.OpRead, nil)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
