package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cashbook/internal/cache"
	"cashbook/internal/core"
	"cashbook/internal/ledger"
	"cashbook/internal/sources"
)

const (
	snapshotKey         = "snapshot"
	defaultFetchTimeout = 30 * time.Second
)

// LedgerOptions configure the read caches. A non-positive CacheTTL disables
// caching.
type LedgerOptions struct {
	CacheTTL  time.Duration
	CacheSize int
	// Now is used to date undated vouchers; defaults to time.Now.
	Now func() time.Time
	// FetchTimeout bounds one source fetch; defaults to 30s.
	FetchTimeout time.Duration
}

// LedgerService loads source snapshots and turns them into ledger reports.
type LedgerService struct {
	backend   sources.Backend
	snapshots *cache.LRUCache[ledger.Sources]
	reports   *cache.LRUCache[ledger.Report]
	group     singleflight.Group
	now       func() time.Time
	timeout   time.Duration

	// mu guards gen and serializes cache writes against Invalidate. gen
	// counts invalidations; data loaded under an older gen is not cached.
	mu  sync.Mutex
	gen uint64
}

// NewLedgerService wires the service and registers its caches with manager
// when one is given.
func NewLedgerService(backend sources.Backend, opts LedgerOptions, manager *cache.Manager) *LedgerService {
	s := &LedgerService{backend: backend, now: opts.Now, timeout: opts.FetchTimeout}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeout <= 0 {
		s.timeout = defaultFetchTimeout
	}
	if opts.CacheTTL > 0 {
		size := opts.CacheSize
		if size < 1 {
			size = 128
		}
		s.snapshots = cache.NewLRUCache[ledger.Sources](1, opts.CacheTTL)
		s.reports = cache.NewLRUCache[ledger.Report](size, opts.CacheTTL)
		if manager != nil {
			manager.Register(s.snapshots)
			manager.Register(s.reports)
		}
	}
	return s
}

// Report validates q and builds the report for it.
func (s *LedgerService) Report(ctx context.Context, q ledger.Query) (ledger.Report, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return ledger.Report{}, err
	}

	key := q.Key()
	if s.reports != nil {
		if r, ok := s.reports.Get(key); ok {
			slog.DebugContext(ctx, "Ledger report served from cache", "component", "ledger", "key", key)
			return r, nil
		}
	}

	gen := s.generation()
	src, err := s.snapshot(ctx, gen)
	if err != nil {
		return ledger.Report{}, err
	}

	r := ledger.GenerateAt(src, q, s.now())
	if s.reports != nil {
		s.storeIfCurrent(gen, func() { s.reports.Set(key, r) })
	}
	return r, nil
}

// Snapshot returns every source record for all stores. The opening balance
// needs unfiltered history, so the store filter is never pushed down.
// Concurrent misses share one fetch.
func (s *LedgerService) Snapshot(ctx context.Context) (ledger.Sources, error) {
	return s.snapshot(ctx, s.generation())
}

func (s *LedgerService) snapshot(ctx context.Context, gen uint64) (ledger.Sources, error) {
	if s.snapshots != nil {
		if src, ok := s.snapshots.Get(snapshotKey); ok {
			return src, nil
		}
	}

	// Callers after an invalidation never join a fetch started before it.
	key := snapshotKey + ":" + strconv.FormatUint(gen, 10)
	ch := s.group.DoChan(key, func() (any, error) {
		// The shared fetch must not end with the request that started it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		src, err := s.fetch(fctx)
		if err != nil {
			return ledger.Sources{}, err
		}
		if s.snapshots != nil && !s.storeIfCurrent(gen, func() { s.snapshots.Set(snapshotKey, src) }) {
			slog.InfoContext(fctx, "Discarding snapshot loaded before invalidation", "component", "ledger")
		}
		return src, nil
	})

	select {
	case <-ctx.Done():
		return ledger.Sources{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ledger.Sources{}, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "Shared in-flight snapshot fetch", "component", "ledger")
		}
		return res.Val.(ledger.Sources), nil
	}
}

func (s *LedgerService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// storeIfCurrent runs set unless the caches were invalidated after gen was
// read.
func (s *LedgerService) storeIfCurrent(gen uint64, set func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	set()
	return true
}

func (s *LedgerService) fetch(ctx context.Context) (ledger.Sources, error) {
	start := time.Now()
	var src ledger.Sources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		orders, err := s.backend.ListOrders(gctx, core.All)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		src.Orders = orders
		return nil
	})
	g.Go(func() error {
		receipts, err := s.backend.ListReceipts(gctx, core.All)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}
		src.Receipts = receipts
		return nil
	})
	g.Go(func() error {
		vouchers, err := s.backend.ListVouchers(gctx, core.Income)
		if err != nil {
			return fmt.Errorf("list income vouchers: %w", err)
		}
		src.IncomeVouchers = vouchers
		return nil
	})
	g.Go(func() error {
		vouchers, err := s.backend.ListVouchers(gctx, core.Expense)
		if err != nil {
			return fmt.Errorf("list expense vouchers: %w", err)
		}
		src.ExpenseVouchers = vouchers
		return nil
	})
	g.Go(func() error {
		v, err := s.backend.UseCreatedDate(gctx)
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		src.Settings.UseCreatedDate = v
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Source snapshot failed", "component", "ledger", "error", err)
		return ledger.Sources{}, err
	}

	slog.InfoContext(ctx, "Source snapshot loaded",
		"component", "ledger",
		"orders", len(src.Orders),
		"receipts", len(src.Receipts),
		"income_vouchers", len(src.IncomeVouchers),
		"expense_vouchers", len(src.ExpenseVouchers),
		"duration_ms", time.Since(start).Milliseconds())
	return src, nil
}

// Invalidate drops cached snapshots and reports after a source changed.
// Fetches already running are not cached when they finish. It returns the
// number of dropped entries.
func (s *LedgerService) Invalidate(ctx context.Context, source string) int {
	s.mu.Lock()
	s.gen++
	n := 0
	if s.snapshots != nil {
		n = s.snapshots.Clear() + s.reports.Clear()
	}
	s.mu.Unlock()

	if s.snapshots == nil {
		return 0
	}
	slog.InfoContext(ctx, "Ledger caches invalidated", "component", "ledger", "source", source, "dropped", n)
	return n
}

// CacheStats reports the snapshot and report cache counters.
func (s *LedgerService) CacheStats() map[string]cache.Stats {
	if s.snapshots == nil {
		return map[string]cache.Stats{}
	}
	return map[string]cache.Stats{
		"snapshots": s.snapshots.Stats(),
		"reports":   s.reports.Stats(),
	}
}
