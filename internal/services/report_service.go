package services

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/cache"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/log"
)

// View sizes used by the dashboard and the reports page.
const (
	DefaultRecentLimit   = 10
	DashboardChartMonths = 6
	ReportChartMonths    = 12
	ReportTopCategories  = 5
)

// ReportConfig tunes the aggregation engine.
type ReportConfig struct {
	// Location decides which calendar day "today" is.
	Location *time.Location

	// CacheTTL bounds how long a computed view is reused (default: 30s).
	CacheTTL time.Duration

	// CacheSize is the number of cached views (default: 256).
	CacheSize int

	// Timeout bounds every read against the store (default: 7s).
	Timeout time.Duration
}

// DefaultReportConfig returns the school defaults.
func DefaultReportConfig() ReportConfig {
	loc, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		loc = time.UTC
	}
	return ReportConfig{
		Location:  loc,
		CacheTTL:  30 * time.Second,
		CacheSize: 256,
		Timeout:   7 * time.Second,
	}
}

// ReportService derives summaries, balances and series from the ledger.
// Every figure excludes voided transactions.
type ReportService struct {
	store  ledger.Store
	cache  *cache.LRUCache[any]
	config ReportConfig
	policy auth.Policy
	now    func() time.Time
	// gen counts invalidations so a view computed across a write is not stored.
	gen atomic.Uint64
}

var _ Invalidator = (*ReportService)(nil)

func NewReportService(store ledger.Store, config ReportConfig) *ReportService {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &ReportService{
		store:  store,
		cache:  cache.NewLRUCache[any](config.CacheSize, config.CacheTTL),
		config: config,
		policy: auth.DefaultPolicy,
		now:    time.Now,
	}
}

// Cache exposes the view cache so a cache.Manager can sweep it.
func (s *ReportService) Cache() *cache.LRUCache[any] {
	return s.cache
}

// Invalidate drops every cached view. Writers call it after each mutation.
func (s *ReportService) Invalidate() {
	s.gen.Add(1)
	s.cache.Clear()
}

// Today is the current calendar day in the school's time zone.
func (s *ReportService) Today() core.Date {
	return core.DateOf(s.now(), s.config.Location)
}

func (s *ReportService) DailySummary(ctx context.Context, date core.Date, caller *core.Caller) (core.Summary, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Summary{}, err
	}
	return s.summary(ctx, core.DayRange(date))
}

func (s *ReportService) MonthlySummary(ctx context.Context, date core.Date, caller *core.Caller) (core.Summary, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Summary{}, err
	}
	return s.summary(ctx, core.MonthRange(date))
}

// AllTimeTotals sums every non-voided transaction.
func (s *ReportService) AllTimeTotals(ctx context.Context, caller *core.Caller) (core.Summary, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Summary{}, err
	}
	return s.summary(ctx, core.DateRange{})
}

// RunningBalance is the latest opening balance plus all income minus all expense.
func (s *ReportService) RunningBalance(ctx context.Context, caller *core.Caller) (core.Money, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Money{}, err
	}
	return s.balance(ctx, nil)
}

// BalanceAsOf is the running balance restricted to transactions and opening
// balances dated on or before date.
func (s *ReportService) BalanceAsOf(ctx context.Context, date core.Date, caller *core.Caller) (core.Money, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Money{}, err
	}
	return s.balance(ctx, &date)
}

// MonthlySeries yields n points, oldest first, ending with the current month.
// Each range over the sequence reads the current ledger state.
func (s *ReportService) MonthlySeries(ctx context.Context, n int, caller *core.Caller) iter.Seq2[core.MonthPoint, error] {
	return func(yield func(core.MonthPoint, error) bool) {
		if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
			yield(core.MonthPoint{}, err)
			return
		}
		for p, err := range s.series(ctx, n) {
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// MonthlyChart collects MonthlySeries.
func (s *ReportService) MonthlyChart(ctx context.Context, n int, caller *core.Caller) ([]core.MonthPoint, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return nil, err
	}
	return s.chart(ctx, n)
}

// CategoryBreakdown groups the month containing date by category, largest first.
func (s *ReportService) CategoryBreakdown(ctx context.Context, date core.Date, caller *core.Caller) ([]core.CategoryTotal, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return nil, err
	}
	return s.breakdown(ctx, core.MonthRange(date), 0)
}

// TopCategories returns the n largest all-time categories. Equal amounts are
// ordered by category name.
func (s *ReportService) TopCategories(ctx context.Context, n int, caller *core.Caller) ([]core.CategoryTotal, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []core.CategoryTotal{}, nil
	}
	return s.breakdown(ctx, core.DateRange{}, n)
}

// RecentActivity returns the most recently created transactions.
func (s *ReportService) RecentActivity(ctx context.Context, limit int, caller *core.Caller) ([]core.TransactionDetail, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return nil, err
	}
	return s.recent(ctx, limit)
}

// Dashboard assembles the landing page views concurrently.
func (s *ReportService) Dashboard(ctx context.Context, caller *core.Caller) (core.Dashboard, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Dashboard{}, err
	}
	today := s.Today()

	var d core.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Today, err = s.summary(gctx, core.DayRange(today))
		return err
	})
	g.Go(func() (err error) {
		d.Month, err = s.summary(gctx, core.MonthRange(today))
		return err
	})
	g.Go(func() (err error) {
		d.Balance, err = s.balance(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		d.Chart, err = s.chart(gctx, DashboardChartMonths)
		return err
	})
	g.Go(func() (err error) {
		d.Breakdown, err = s.breakdown(gctx, core.MonthRange(today), 0)
		return err
	})
	g.Go(func() (err error) {
		d.Recent, err = s.recent(gctx, DefaultRecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}
	return d, nil
}

// Report assembles the reports page views concurrently.
func (s *ReportService) Report(ctx context.Context, caller *core.Caller) (core.Report, error) {
	if err := s.policy.Authorize(caller, auth.ReportRead); err != nil {
		return core.Report{}, err
	}

	var r core.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.Totals, err = s.summary(gctx, core.DateRange{})
		return err
	})
	g.Go(func() (err error) {
		r.Chart, err = s.chart(gctx, ReportChartMonths)
		return err
	})
	g.Go(func() (err error) {
		r.TopCategories, err = s.breakdown(gctx, core.DateRange{}, ReportTopCategories)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Report{}, err
	}
	return r, nil
}

func (s *ReportService) summary(ctx context.Context, r core.DateRange) (core.Summary, error) {
	return cached(s, "summary:"+rangeKey(r), func() (core.Summary, error) {
		var income, expense core.Money
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			income, err = s.sum(gctx, core.TransactionFilter{Range: r, Type: core.Income})
			return err
		})
		g.Go(func() (err error) {
			expense, err = s.sum(gctx, core.TransactionFilter{Range: r, Type: core.Expense})
			return err
		})
		if err := g.Wait(); err != nil {
			return core.Summary{}, err
		}
		return core.NewSummary(income, expense), nil
	})
}

func (s *ReportService) balance(ctx context.Context, asOf *core.Date) (core.Money, error) {
	key := "balance:"
	var r core.DateRange
	if asOf != nil {
		key += asOf.String()
		r.To = *asOf
	}
	return cached(s, key, func() (core.Money, error) {
		var opening core.Money
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			sctx, cancel := s.withTimeout(gctx)
			defer cancel()
			b, err := s.store.LatestOpeningBalance(sctx, asOf)
			if err != nil {
				return storeErr(ctx, log.ComponentReport, "load opening balance", err)
			}
			if b != nil {
				opening = b.Amount
			}
			return nil
		})
		var totals core.Summary
		g.Go(func() (err error) {
			totals, err = s.summary(gctx, r)
			return err
		})
		if err := g.Wait(); err != nil {
			return core.Money{}, err
		}
		return opening.Add(totals.Net), nil
	})
}

func (s *ReportService) series(ctx context.Context, n int) iter.Seq2[core.MonthPoint, error] {
	return func(yield func(core.MonthPoint, error) bool) {
		if n <= 0 {
			return
		}
		current := s.Today().StartOfMonth()
		for i := n - 1; i >= 0; i-- {
			month := current.AddMonths(-i)
			sum, err := s.summary(ctx, core.MonthRange(month))
			if err != nil {
				yield(core.MonthPoint{}, err)
				return
			}
			p := core.MonthPoint{
				Label:   month.MonthLabel(),
				Year:    month.Year(),
				Month:   month.Month(),
				Income:  sum.Income,
				Expense: sum.Expense,
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (s *ReportService) chart(ctx context.Context, n int) ([]core.MonthPoint, error) {
	points := make([]core.MonthPoint, 0, max(n, 0))
	for p, err := range s.series(ctx, n) {
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// breakdown resolves per-category sums to names. limit <= 0 keeps every group.
func (s *ReportService) breakdown(ctx context.Context, r core.DateRange, limit int) ([]core.CategoryTotal, error) {
	key := fmt.Sprintf("breakdown:%s:%d", rangeKey(r), limit)
	return cached(s, key, func() ([]core.CategoryTotal, error) {
		sctx, cancel := s.withTimeout(ctx)
		defer cancel()

		sums, err := s.store.SumByCategory(sctx, core.TransactionFilter{Range: r})
		if err != nil {
			return nil, storeErr(ctx, log.ComponentReport, "load category totals", err)
		}
		ids := make([]string, 0, len(sums))
		for _, cs := range sums {
			ids = append(ids, cs.CategoryID)
		}
		cats, err := s.store.CategoriesByIDs(sctx, ids)
		if err != nil {
			return nil, storeErr(ctx, log.ComponentReport, "load categories", err)
		}

		out := make([]core.CategoryTotal, 0, len(sums))
		for _, cs := range sums {
			if cs.Amount.IsZero() {
				continue
			}
			t := core.CategoryTotal{
				CategoryID: cs.CategoryID,
				Name:       core.UnknownCategory,
				Type:       core.Expense,
				Amount:     cs.Amount,
			}
			if c, ok := cats[cs.CategoryID]; ok {
				t.Name = c.Name
				t.Type = c.Type
			}
			out = append(out, t)
		}
		slices.SortStableFunc(out, compareTotals)
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	})
}

func (s *ReportService) recent(ctx context.Context, limit int) ([]core.TransactionDetail, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return cached(s, fmt.Sprintf("recent:%d", limit), func() ([]core.TransactionDetail, error) {
		sctx, cancel := s.withTimeout(ctx)
		defer cancel()
		items, err := s.store.RecentTransactions(sctx, limit)
		if err != nil {
			return nil, storeErr(ctx, log.ComponentReport, "load recent transactions", err)
		}
		if items == nil {
			items = []core.TransactionDetail{}
		}
		return items, nil
	})
}

func (s *ReportService) sum(ctx context.Context, f core.TransactionFilter) (core.Money, error) {
	sctx, cancel := s.withTimeout(ctx)
	defer cancel()
	m, err := s.store.SumAmount(sctx, f)
	if err != nil {
		return core.Money{}, storeErr(ctx, log.ComponentReport, "load totals", err)
	}
	return m, nil
}

func (s *ReportService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

// cached returns the cached view under key or computes and stores it.
// Failures are never cached.
func cached[T any](s *ReportService, key string, compute func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	gen := s.gen.Load()
	t, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	if s.gen.Load() == gen {
		s.cache.Set(key, t)
	}
	return t, nil
}

func rangeKey(r core.DateRange) string {
	return r.From.String() + ".." + r.To.String()
}

// compareTotals orders by amount descending, then by name.
func compareTotals(a, b core.CategoryTotal) int {
	if c := b.Amount.Cmp(a.Amount); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.CategoryID, b.CategoryID)
}
