package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"contas/internal/cache"
	"contas/internal/core"
	"contas/internal/storage"
)

const (
	seriesDays         = 30
	reportRecentLimit  = 60
	reportCacheEntries = 256
)

// ReportService computes read-only KPIs. Results are cached per user until
// the next ledger change or the TTL, whichever comes first.
type ReportService struct {
	storage    *storage.SQLiteRepository
	dashboards *cache.LRUCache[core.Dashboard]
	reports    *cache.LRUCache[core.Report]
	group      singleflight.Group
	generation atomic.Int64 // bumped on every invalidation
	now        func() time.Time
}

func NewReportService(storage *storage.SQLiteRepository, ttl time.Duration) *ReportService {
	return &ReportService{
		storage:    storage,
		dashboards: cache.NewLRUCache[core.Dashboard](reportCacheEntries, ttl),
		reports:    cache.NewLRUCache[core.Report](reportCacheEntries, ttl),
		now:        time.Now,
	}
}

// Caches exposes the report caches for periodic expiry sweeps.
func (s *ReportService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.dashboards, s.reports}
}

// Invalidate drops cached results for the event's user. It matches ChangeHook.
func (s *ReportService) Invalidate(ctx context.Context, ev core.LedgerEvent) {
	s.generation.Add(1)
	prefix := userKey(ev.UserID)
	n := s.dashboards.DeletePrefix(prefix) + s.reports.DeletePrefix(prefix)
	if n > 0 {
		slog.DebugContext(ctx, "Report cache invalidated", "user_id", ev.UserID, "entries", n)
	}
}

// Cache keys carry the day so a cached dashboard never outlives its date.
func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10) + ":"
}

func (s *ReportService) today() core.Date {
	return core.DateOf(s.now())
}

// DashboardSummary returns month-to-date KPIs, the 30 day series ending today
// and the current balances. Transfer legs never count.
func (s *ReportService) DashboardSummary(ctx context.Context, userID int64) (core.Dashboard, error) {
	today := s.today()
	key := userKey(userID) + today.String()
	if d, ok := s.dashboards.Get(key); ok {
		return d, nil
	}

	v, err, _ := s.group.Do("dashboard:"+key, func() (interface{}, error) {
		gen := s.generation.Load()
		d, err := s.buildDashboard(ctx, userID, today)
		if err != nil {
			return core.Dashboard{}, err
		}
		// A write that landed mid-build may not be reflected; don't cache it.
		if s.generation.Load() == gen {
			s.dashboards.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return v.(core.Dashboard), nil
}

func (s *ReportService) buildDashboard(ctx context.Context, userID int64, today core.Date) (core.Dashboard, error) {
	q := s.storage.Queries()
	monthStart := today.FirstOfMonth()
	d := core.Dashboard{Today: today}

	var err error
	if d.Accounts, err = q.ListAccounts(ctx, userID); err != nil {
		return d, err
	}
	d.Balances = core.BalancesOf(d.Accounts)

	if d.Month, err = q.SumTotals(ctx, userID, core.TransactionFilter{From: monthStart}); err != nil {
		return d, err
	}
	d.SavingsRate = SavingsRate(d.Month)
	d.AvgDailySpend = core.Money{Cents: roundDiv(d.Month.Expense.Cents, int64(today.Day()))}

	if d.OpenDebt, err = q.OpenDebtTotal(ctx, userID); err != nil {
		return d, err
	}
	if d.Series, err = q.DailySeries(ctx, userID, today.AddDays(-(seriesDays - 1)), today); err != nil {
		return d, err
	}
	if d.Categories, err = q.ExpenseCategories(ctx, userID, monthStart, false); err != nil {
		return d, err
	}
	d.TopCategory = TopCategoryLabel(d.Categories)
	return d, nil
}

// ReportSummary returns the printable report: balances, all-time and month
// totals, open debt, net worth and the latest transactions.
func (s *ReportService) ReportSummary(ctx context.Context, userID int64) (core.Report, error) {
	today := s.today()
	key := userKey(userID) + today.String()
	if r, ok := s.reports.Get(key); ok {
		return r, nil
	}

	v, err, _ := s.group.Do("report:"+key, func() (interface{}, error) {
		gen := s.generation.Load()
		r, err := s.buildReport(ctx, userID, today)
		if err != nil {
			return core.Report{}, err
		}
		if s.generation.Load() == gen {
			s.reports.Set(key, r)
		}
		return r, nil
	})
	if err != nil {
		return core.Report{}, fmt.Errorf("report summary: %w", err)
	}
	return v.(core.Report), nil
}

func (s *ReportService) buildReport(ctx context.Context, userID int64, today core.Date) (core.Report, error) {
	q := s.storage.Queries()
	monthStart := today.FirstOfMonth()
	r := core.Report{
		GeneratedAt: today,
		PeriodLabel: PeriodLabel(monthStart, today),
	}

	var err error
	if r.Accounts, err = q.ListAccounts(ctx, userID); err != nil {
		return r, err
	}
	r.Balances = core.BalancesOf(r.Accounts)

	if r.AllTime, err = q.SumTotals(ctx, userID, core.TransactionFilter{}); err != nil {
		return r, err
	}
	if r.Month, err = q.SumTotals(ctx, userID, core.TransactionFilter{From: monthStart}); err != nil {
		return r, err
	}
	if r.OpenDebt, err = q.OpenDebtTotal(ctx, userID); err != nil {
		return r, err
	}
	r.NetWorth = r.Balances.Total.Sub(r.OpenDebt)

	if r.Categories, err = q.ExpenseCategories(ctx, userID, monthStart, true); err != nil {
		return r, err
	}
	if r.Transactions, err = q.ListTransactions(ctx, userID, core.TransactionFilter{Limit: reportRecentLimit}); err != nil {
		return r, err
	}
	return r, nil
}

// SummarizeTransactions returns totals for the filtered set next to all-time
// totals and balances. Transfer legs never count.
func (s *ReportService) SummarizeTransactions(ctx context.Context, userID int64, f core.TransactionFilter) (core.TransactionSummary, error) {
	if err := f.Validate(); err != nil {
		return core.TransactionSummary{}, err
	}
	q := s.storage.Queries()

	var (
		sum core.TransactionSummary
		err error
	)
	if sum.Filtered, err = q.SumTotals(ctx, userID, f); err != nil {
		return sum, fmt.Errorf("summarize transactions: %w", err)
	}
	if sum.AllTime, err = q.SumTotals(ctx, userID, core.TransactionFilter{}); err != nil {
		return sum, fmt.Errorf("summarize transactions: %w", err)
	}
	accounts, err := q.ListAccounts(ctx, userID)
	if err != nil {
		return sum, fmt.Errorf("summarize transactions: %w", err)
	}
	sum.Balances = core.BalancesOf(accounts)
	return sum, nil
}

// SavingsRate is net over income in percent, 0 when there was no income.
func SavingsRate(t core.Totals) float64 {
	if t.Income.Cents <= 0 {
		return 0
	}
	return float64(t.Net().Cents) / float64(t.Income.Cents) * 100
}

// TopCategoryLabel renders the largest category as "name - 12.34 MT", or "-"
// when there is none.
func TopCategoryLabel(cats []core.CategoryAmount) string {
	if len(cats) == 0 {
		return "-"
	}
	return cats[0].Name + " - " + cats[0].Amount.Format()
}

// PeriodLabel renders "dd/mm/yyyy to dd/mm/yyyy".
func PeriodLabel(from, to core.Date) string {
	const layout = "02/01/2006"
	return from.Format(layout) + " to " + to.Format(layout)
}

func roundDiv(a, b int64) int64 {
	if b <= 0 {
		return a
	}
	if a >= 0 {
		return (a + b/2) / b
	}
	return (a - b/2) / b
}
