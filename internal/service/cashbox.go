// Package service provides the business logic layer (use cases).
// CashboxService is the financial reporting engine: it aggregates the
// transaction/check-in ledger into daily and monthly summaries, trend
// figures and the auditable daily closing report.
package service

import (
	"context"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var cashboxTracer = otel.Tracer("service/cashbox")

var (
	paymentFilter = port.TransactionFilter{Types: []domain.TransactionType{domain.TransactionPayment}}
	expenseFilter = port.TransactionFilter{
		Types: []domain.TransactionType{domain.TransactionRefund, domain.TransactionManual},
		Sign:  port.NegativeOnly,
	}
)

// CashboxService computes read-only financial reports over the ledger.
// It holds no state of its own: every call recomputes from current store
// state, so figures are never stale.
type CashboxService struct {
	ledger  port.LedgerStore
	members port.MemberDirectory
	metrics *observability.Metrics
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewCashboxService creates the reporting engine. loc is the reference
// timezone for calendar windows. clock may be nil, which means time.Now —
// tests inject a fixed clock.
func NewCashboxService(
	ledger port.LedgerStore,
	members port.MemberDirectory,
	metrics *observability.Metrics,
	logger *zap.Logger,
	loc *time.Location,
	clock func() time.Time,
) *CashboxService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CashboxService{
		ledger:  ledger,
		members: members,
		metrics: metrics,
		logger:  logger,
		loc:     loc,
		now:     clock,
	}
}

// TodaysSummary computes the current day's headline figures: PAYMENT
// revenue, the full transaction detail list (every type), check-in count
// and new subscriptions.
func (s *CashboxService) TodaysSummary(ctx context.Context) (*domain.TodaysSummary, error) {
	ctx, span := cashboxTracer.Start(ctx, "CashboxService.TodaysSummary")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("cashbox.today", time.Since(start))
	}()

	w := domain.DayWindow(s.now().In(s.loc))

	var (
		revenueCents int64
		revenueCount int
		transactions []domain.Transaction
		checkIns     int
		newSubs      int
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		revenueCents, err = s.ledger.SumAmountCents(gCtx, paymentFilter, w)
		return err
	})
	g.Go(func() error {
		var err error
		revenueCount, err = s.ledger.CountTransactions(gCtx, paymentFilter, w)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.ledger.ListTransactions(gCtx, w, true)
		return err
	})
	g.Go(func() error {
		var err error
		checkIns, err = s.ledger.CountCheckIns(gCtx, w)
		return err
	})
	g.Go(func() error {
		var err error
		newSubs, err = s.members.CountNewMembersWithPlan(gCtx, w)
		return err
	})

	if err := g.Wait(); err != nil {
		s.fail("todays summary", err)
		return nil, err
	}
	s.metrics.IncrRequest("success")

	return &domain.TodaysSummary{
		Revenue:                 domain.CentsToMajor(revenueCents),
		RevenueTransactionCount: revenueCount,
		CheckIns:                checkIns,
		NewSubscriptions:        newSubs,
		Transactions:            toDetails(transactions),
	}, nil
}

// MonthlySummary computes a calendar month's rollup plus the per-day PAYMENT
// breakdown. Zero year/month default to the current month in the reporting
// timezone.
func (s *CashboxService) MonthlySummary(ctx context.Context, year, month int) (*domain.MonthlySummary, error) {
	ctx, span := cashboxTracer.Start(ctx, "CashboxService.MonthlySummary")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("cashbox.monthly", time.Since(start))
	}()

	now := s.now().In(s.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	span.SetAttributes(attribute.Int("report.year", year), attribute.Int("report.month", month))

	w := domain.MonthWindow(year, time.Month(month), s.loc)

	var (
		revenueCents int64
		expenseCents int64 // negative or zero: sum of negative REFUND/MANUAL entries
		checkIns     int
		newUsers     int
		breakdown    []domain.DailyRevenue
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		revenueCents, err = s.ledger.SumAmountCents(gCtx, paymentFilter, w)
		return err
	})
	g.Go(func() error {
		var err error
		expenseCents, err = s.ledger.SumAmountCents(gCtx, expenseFilter, w)
		return err
	})
	g.Go(func() error {
		var err error
		checkIns, err = s.ledger.CountCheckIns(gCtx, w)
		return err
	})
	g.Go(func() error {
		var err error
		newUsers, err = s.members.CountMembersCreated(gCtx, w)
		return err
	})
	g.Go(func() error {
		var err error
		breakdown, err = s.ledger.GroupDailyPaymentTotals(gCtx, w)
		return err
	})

	if err := g.Wait(); err != nil {
		s.fail("monthly summary", err)
		return nil, err
	}
	s.metrics.IncrRequest("success")

	if breakdown == nil {
		breakdown = []domain.DailyRevenue{}
	}

	// expenseCents is already negative, so net income is a plain sum.
	expenses := expenseCents
	if expenses < 0 {
		expenses = -expenses
	}

	return &domain.MonthlySummary{
		Year:           year,
		Month:          month,
		Revenue:        domain.CentsToMajor(revenueCents),
		Expenses:       domain.CentsToMajor(expenses),
		NetIncome:      domain.CentsToMajor(revenueCents + expenseCents),
		CheckIns:       checkIns,
		NewUsers:       newUsers,
		DailyBreakdown: breakdown,
	}, nil
}

// TotalRevenue returns the lifetime sum of all PAYMENT transactions. There
// is no as-of snapshotting: a back-dated payment retroactively raises it.
func (s *CashboxService) TotalRevenue(ctx context.Context) (float64, error) {
	ctx, span := cashboxTracer.Start(ctx, "CashboxService.TotalRevenue")
	defer span.End()

	cents, err := s.ledger.SumAmountCents(ctx, paymentFilter, domain.AllTime())
	if err != nil {
		s.fail("total revenue", err)
		return 0, err
	}
	s.metrics.IncrRequest("success")
	return domain.CentsToMajor(cents), nil
}

// DailyReport produces the full auditable closing report for one calendar
// day, using the closed window [00:00:00.000, 23:59:59.999]. Any store
// failure fails the whole report — no partial output.
func (s *CashboxService) DailyReport(ctx context.Context, date time.Time) (*domain.DailyReport, error) {
	ctx, span := cashboxTracer.Start(ctx, "CashboxService.DailyReport")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("cashbox.daily_report", time.Since(start))
	}()

	w := domain.ReportDayWindow(date, s.loc)
	span.SetAttributes(attribute.String("report.date", w.Start.Format("2006-01-02")))

	var (
		transactions []domain.Transaction
		checkIns     []domain.CheckIn
		newSubs      []domain.Member
		expired      []domain.Member
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		transactions, err = s.ledger.ListTransactions(gCtx, w, true)
		return err
	})
	g.Go(func() error {
		var err error
		checkIns, err = s.ledger.ListCheckIns(gCtx, w, true)
		return err
	})
	g.Go(func() error {
		var err error
		newSubs, err = s.members.ListNewMembersWithPlan(gCtx, w)
		return err
	})
	g.Go(func() error {
		var err error
		expired, err = s.members.ListExpiredActiveMembers(gCtx, w)
		return err
	})

	if err := g.Wait(); err != nil {
		s.fail("daily report", err)
		return nil, err
	}
	s.metrics.IncrRequest("success")

	// Totals come from the fetched list, in cents, converting once at the end.
	var revenueCents, refundCents int64
	for _, t := range transactions {
		switch t.Type {
		case domain.TransactionPayment:
			revenueCents += t.AmountCents
		case domain.TransactionRefund:
			refundCents += t.AmountCents
		}
	}
	if refundCents < 0 {
		refundCents = -refundCents
	}

	if checkIns == nil {
		checkIns = []domain.CheckIn{}
	}
	if newSubs == nil {
		newSubs = []domain.Member{}
	}
	if expired == nil {
		expired = []domain.Member{}
	}

	return &domain.DailyReport{
		Date: w.Start.Format("2006-01-02"),
		Summary: domain.DailyReportSummary{
			TotalRevenue:       domain.CentsToMajor(revenueCents),
			TotalRefunds:       domain.CentsToMajor(refundCents),
			NetRevenue:         domain.CentsToMajor(revenueCents - refundCents),
			TotalCheckIns:      len(checkIns),
			NewSubscriptions:   len(newSubs),
			ExpiredMemberships: len(expired),
		},
		Details: domain.DailyReportDetails{
			Transactions:       toDetails(transactions),
			CheckIns:           checkIns,
			NewSubscriptions:   newSubs,
			ExpiredMemberships: expired,
		},
	}, nil
}

// RevenueTrends compares the most recent 7 days of PAYMENT revenue against
// the preceding 7 days. When the previous period had zero revenue the change
// is reported as flat 0% rather than propagating a division by zero.
func (s *CashboxService) RevenueTrends(ctx context.Context) (*domain.RevenueTrend, error) {
	ctx, span := cashboxTracer.Start(ctx, "CashboxService.RevenueTrends")
	defer span.End()

	now := s.now().In(s.loc)
	currentWindow := domain.TrailingWindow(now, 7)
	previousWindow := domain.TrailingWindow(now.AddDate(0, 0, -7), 7)

	var currentCents, previousCents int64

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentCents, err = s.ledger.SumAmountCents(gCtx, paymentFilter, currentWindow)
		return err
	})
	g.Go(func() error {
		var err error
		previousCents, err = s.ledger.SumAmountCents(gCtx, paymentFilter, previousWindow)
		return err
	})

	if err := g.Wait(); err != nil {
		s.fail("revenue trends", err)
		return nil, err
	}
	s.metrics.IncrRequest("success")

	current := domain.CentsToMajor(currentCents)
	previous := domain.CentsToMajor(previousCents)

	change := float64(0)
	if previous > 0 {
		change = (current - previous) / previous * 100
	}

	return &domain.RevenueTrend{
		Current:    current,
		Previous:   previous,
		Change:     change,
		IsPositive: change >= 0,
	}, nil
}

// fail records a failed ledger operation.
func (s *CashboxService) fail(op string, err error) {
	s.logger.Error("cashbox operation failed", zap.String("operation", op), zap.Error(err))
	s.metrics.IncrRequest("error")
}

// toDetails derives the major-unit amount for each transaction. Always
// returns a non-nil slice so empty days serialize as [] rather than null.
func toDetails(txns []domain.Transaction) []domain.TransactionDetail {
	details := make([]domain.TransactionDetail, 0, len(txns))
	for _, t := range txns {
		details = append(details, domain.TransactionDetail{
			Transaction: t,
			Amount:      domain.CentsToMajor(t.AmountCents),
		})
	}
	return details
}
