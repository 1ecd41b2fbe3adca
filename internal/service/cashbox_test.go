package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/memory"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/port"
	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"go.uber.org/zap"
)

// Fixed reference instant for every test: mid-month, mid-day.
var testNow = time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newCashbox(store *memory.Store) *service.CashboxService {
	return service.NewCashboxService(store, store, observability.NewMetrics(), zap.NewNop(), time.UTC, fixedClock)
}

// --- Failing store mock ---

type failingLedger struct{}

var errStore = errors.New("connection refused")

func (f *failingLedger) SumAmountCents(context.Context, port.TransactionFilter, domain.Window) (int64, error) {
	return 0, errStore
}
func (f *failingLedger) CountTransactions(context.Context, port.TransactionFilter, domain.Window) (int, error) {
	return 0, errStore
}
func (f *failingLedger) ListTransactions(context.Context, domain.Window, bool) ([]domain.Transaction, error) {
	return nil, errStore
}
func (f *failingLedger) CountCheckIns(context.Context, domain.Window) (int, error) {
	return 0, errStore
}
func (f *failingLedger) ListCheckIns(context.Context, domain.Window, bool) ([]domain.CheckIn, error) {
	return nil, errStore
}
func (f *failingLedger) GroupDailyPaymentTotals(context.Context, domain.Window) ([]domain.DailyRevenue, error) {
	return nil, errStore
}

// --- Tests ---

func TestTodaysSummary(t *testing.T) {
	store := memory.NewStore(time.UTC)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 4999, CreatedAt: testNow,
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionRefund, AmountCents: -1000, CreatedAt: testNow.Add(-time.Hour),
	})
	// Yesterday's payment must not count.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 9999, CreatedAt: testNow.AddDate(0, 0, -1),
	})
	store.AddCheckIn(domain.CheckIn{UserID: "m1", At: testNow.Add(-2 * time.Hour)})
	store.AddCheckIn(domain.CheckIn{UserID: "m2", At: testNow.Add(-time.Hour)})

	startToday := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	store.AddMember(domain.Member{
		Name: "Ana", PlanID: "p1", Active: true,
		MembershipStartDate: &startToday, CreatedAt: startToday,
	})

	svc := newCashbox(store)
	summary, err := svc.TodaysSummary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Revenue != 49.99 {
		t.Errorf("expected revenue 49.99, got %v", summary.Revenue)
	}
	if summary.RevenueTransactionCount != 1 {
		t.Errorf("expected 1 revenue transaction, got %d", summary.RevenueTransactionCount)
	}
	// The detail list carries every type, refunds included.
	if len(summary.Transactions) != 2 {
		t.Fatalf("expected 2 transactions in detail list, got %d", len(summary.Transactions))
	}
	if summary.CheckIns != 2 {
		t.Errorf("expected 2 check-ins, got %d", summary.CheckIns)
	}
	if summary.NewSubscriptions != 1 {
		t.Errorf("expected 1 new subscription, got %d", summary.NewSubscriptions)
	}
}

func TestTodaysSummary_ManualCreditNotRevenue(t *testing.T) {
	store := memory.NewStore(time.UTC)
	// A positive MANUAL adjustment appears in the list but is neither
	// revenue nor an expense.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionManual, AmountCents: 500, CreatedAt: testNow,
	})

	svc := newCashbox(store)
	summary, err := svc.TodaysSummary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Revenue != 0 {
		t.Errorf("expected revenue 0, got %v", summary.Revenue)
	}
	if len(summary.Transactions) != 1 {
		t.Errorf("expected the manual entry in the detail list, got %d entries", len(summary.Transactions))
	}
}

func TestTodaysSummary_AttachesUserInfo(t *testing.T) {
	store := memory.NewStore(time.UTC)
	m := store.AddMember(domain.Member{Name: "Carlos", Email: "carlos@example.com"})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 2999, UserID: m.ID, CreatedAt: testNow,
	})

	svc := newCashbox(store)
	summary, err := svc.TodaysSummary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Transactions[0].User == nil || summary.Transactions[0].User.Name != "Carlos" {
		t.Errorf("expected user info attached, got %+v", summary.Transactions[0].User)
	}
}

func TestTodaysSummary_Idempotent(t *testing.T) {
	store := memory.NewStore(time.UTC)
	store.AddTransaction(domain.Transaction{
		ID: "tx-1", Type: domain.TransactionPayment, AmountCents: 4999, CreatedAt: testNow,
	})

	svc := newCashbox(store)
	first, err := svc.TodaysSummary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := svc.TodaysSummary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical summaries for unchanged ledger:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestMonthlySummary(t *testing.T) {
	store := memory.NewStore(time.UTC)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 10000,
		CreatedAt: time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC),
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 5000,
		CreatedAt: time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionRefund, AmountCents: -2000,
		CreatedAt: time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionManual, AmountCents: -1000,
		CreatedAt: time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC),
	})
	// Positive MANUAL: neither revenue nor expense.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionManual, AmountCents: 700,
		CreatedAt: time.Date(2026, time.March, 8, 10, 0, 0, 0, time.UTC),
	})
	// February: out of window.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 77700,
		CreatedAt: time.Date(2026, time.February, 20, 10, 0, 0, 0, time.UTC),
	})

	svc := newCashbox(store)
	summary, err := svc.MonthlySummary(context.Background(), 2026, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Revenue != 150.00 {
		t.Errorf("expected revenue 150.00, got %v", summary.Revenue)
	}
	if summary.Expenses != 30.00 {
		t.Errorf("expected expenses 30.00, got %v", summary.Expenses)
	}
	if summary.NetIncome != 120.00 {
		t.Errorf("expected net income 120.00, got %v", summary.NetIncome)
	}
	if summary.NetIncome != summary.Revenue-summary.Expenses {
		t.Errorf("net income must equal revenue minus expenses")
	}

	// Per-day breakdown: payments only, ascending by date.
	if len(summary.DailyBreakdown) != 2 {
		t.Fatalf("expected 2 breakdown days, got %d", len(summary.DailyBreakdown))
	}
	if summary.DailyBreakdown[0].Date != "2026-03-03" || summary.DailyBreakdown[1].Date != "2026-03-10" {
		t.Errorf("expected ascending dates, got %s then %s",
			summary.DailyBreakdown[0].Date, summary.DailyBreakdown[1].Date)
	}
	if summary.DailyBreakdown[0].TotalCents != 10000 || summary.DailyBreakdown[0].Count != 1 {
		t.Errorf("unexpected first breakdown entry: %+v", summary.DailyBreakdown[0])
	}
}

func TestMonthlySummary_EmptyMonth(t *testing.T) {
	store := memory.NewStore(time.UTC)

	svc := newCashbox(store)
	summary, err := svc.MonthlySummary(context.Background(), 2026, 1)
	if err != nil {
		t.Fatalf("an empty month is not an error, got %v", err)
	}

	if summary.Revenue != 0 || summary.Expenses != 0 || summary.NetIncome != 0 {
		t.Errorf("expected all-zero figures, got %+v", summary)
	}
	if summary.DailyBreakdown == nil {
		t.Error("expected empty breakdown slice, got nil")
	}
	if len(summary.DailyBreakdown) != 0 {
		t.Errorf("expected no breakdown entries, got %d", len(summary.DailyBreakdown))
	}
}

func TestMonthlySummary_DefaultsToCurrentMonth(t *testing.T) {
	store := memory.NewStore(time.UTC)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 1234, CreatedAt: testNow,
	})

	svc := newCashbox(store)
	summary, err := svc.MonthlySummary(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Year != 2026 || summary.Month != 3 {
		t.Errorf("expected 2026-03, got %d-%02d", summary.Year, summary.Month)
	}
	if summary.Revenue != 12.34 {
		t.Errorf("expected revenue 12.34, got %v", summary.Revenue)
	}
}

func TestMonthlySummary_InvalidMonth(t *testing.T) {
	// A failing ledger proves validation happens before any store query.
	svc := service.NewCashboxService(&failingLedger{}, memory.NewStore(time.UTC),
		observability.NewMetrics(), zap.NewNop(), time.UTC, fixedClock)

	_, err := svc.MonthlySummary(context.Background(), 2026, 13)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTotalRevenue(t *testing.T) {
	store := memory.NewStore(time.UTC)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 10000,
		CreatedAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 2550, CreatedAt: testNow,
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionRefund, AmountCents: -5000, CreatedAt: testNow,
	})

	svc := newCashbox(store)
	total, err := svc.TotalRevenue(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Lifetime PAYMENT sum; refunds do not reduce it.
	if total != 125.50 {
		t.Errorf("expected 125.50, got %v", total)
	}
}

func TestDailyReport(t *testing.T) {
	store := memory.NewStore(time.UTC)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 4999, CreatedAt: day.Add(10 * time.Hour),
	})
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionRefund, AmountCents: -1000, CreatedAt: day.Add(12 * time.Hour),
	})
	// Negative MANUAL is not a refund in the daily report.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionManual, AmountCents: -300, CreatedAt: day.Add(13 * time.Hour),
	})
	store.AddCheckIn(domain.CheckIn{UserID: "m1", At: day.Add(8 * time.Hour)})

	endDate := day.Add(15 * time.Hour)
	store.AddMember(domain.Member{
		Name: "Bea", PlanID: "p1", Active: true,
		MembershipEndDate: &endDate, CreatedAt: day.AddDate(-1, 0, 0),
	})

	svc := newCashbox(store)
	report, err := svc.DailyReport(context.Background(), day)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if report.Date != "2026-03-10" {
		t.Errorf("expected date 2026-03-10, got %s", report.Date)
	}
	if report.Summary.TotalRevenue != 49.99 {
		t.Errorf("expected revenue 49.99, got %v", report.Summary.TotalRevenue)
	}
	if report.Summary.TotalRefunds != 10.00 {
		t.Errorf("expected refunds 10.00, got %v", report.Summary.TotalRefunds)
	}
	if report.Summary.NetRevenue != 39.99 {
		t.Errorf("expected net revenue 39.99, got %v", report.Summary.NetRevenue)
	}
	if report.Summary.TotalCheckIns != 1 {
		t.Errorf("expected 1 check-in, got %d", report.Summary.TotalCheckIns)
	}
	if report.Summary.ExpiredMemberships != 1 {
		t.Errorf("expected 1 expired membership, got %d", report.Summary.ExpiredMemberships)
	}
	if len(report.Details.Transactions) != 3 {
		t.Errorf("expected all 3 transactions in details, got %d", len(report.Details.Transactions))
	}
}

func TestDailyReport_WindowBoundaries(t *testing.T) {
	store := memory.NewStore(time.UTC)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	// Last representable millisecond of the day: included.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 100,
		CreatedAt: day.Add(24*time.Hour - time.Millisecond),
	})
	// Exact next midnight: excluded.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 200,
		CreatedAt: day.Add(24 * time.Hour),
	})

	svc := newCashbox(store)
	report, err := svc.DailyReport(context.Background(), day)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Summary.TotalRevenue != 1.00 {
		t.Errorf("expected only the 23:59:59.999 payment (1.00), got %v", report.Summary.TotalRevenue)
	}
}

func TestDailyReport_EmptyDay(t *testing.T) {
	store := memory.NewStore(time.UTC)

	svc := newCashbox(store)
	report, err := svc.DailyReport(context.Background(), time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("an empty day is not an error, got %v", err)
	}

	if report.Summary.TotalRevenue != 0 || report.Summary.NetRevenue != 0 {
		t.Errorf("expected zero figures, got %+v", report.Summary)
	}
	if report.Details.Transactions == nil || report.Details.CheckIns == nil ||
		report.Details.NewSubscriptions == nil || report.Details.ExpiredMemberships == nil {
		t.Error("detail slices must be empty, not nil")
	}
}

func TestRevenueTrends(t *testing.T) {
	store := memory.NewStore(time.UTC)
	// Current period: last 7 days.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 4999, CreatedAt: testNow.AddDate(0, 0, -2),
	})
	// Previous period: 7 days before that.
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 2999, CreatedAt: testNow.AddDate(0, 0, -9),
	})

	svc := newCashbox(store)
	trend, err := svc.RevenueTrends(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if trend.Current != 49.99 {
		t.Errorf("expected current 49.99, got %v", trend.Current)
	}
	if trend.Previous != 29.99 {
		t.Errorf("expected previous 29.99, got %v", trend.Previous)
	}
	if !trend.IsPositive {
		t.Error("expected positive trend")
	}
	want := (49.99 - 29.99) / 29.99 * 100
	if trend.Change != want {
		t.Errorf("expected change %v, got %v", want, trend.Change)
	}
}

func TestRevenueTrends_ZeroPrevious(t *testing.T) {
	store := memory.NewStore(time.UTC)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 4999, CreatedAt: testNow.AddDate(0, 0, -1),
	})

	svc := newCashbox(store)
	trend, err := svc.RevenueTrends(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// No division by zero: flat 0% and still reported positive.
	if trend.Change != 0 {
		t.Errorf("expected change 0 with zero previous revenue, got %v", trend.Change)
	}
	if !trend.IsPositive {
		t.Error("expected IsPositive with zero previous revenue")
	}
}

func TestReportsFailAtomically(t *testing.T) {
	svc := service.NewCashboxService(&failingLedger{}, memory.NewStore(time.UTC),
		observability.NewMetrics(), zap.NewNop(), time.UTC, fixedClock)

	if _, err := svc.TodaysSummary(context.Background()); err == nil {
		t.Error("todays summary: expected error from failing store")
	}
	if _, err := svc.MonthlySummary(context.Background(), 2026, 3); err == nil {
		t.Error("monthly summary: expected error from failing store")
	}
	if _, err := svc.DailyReport(context.Background(), testNow); err == nil {
		t.Error("daily report: expected error from failing store")
	}
	if _, err := svc.RevenueTrends(context.Background()); err == nil {
		t.Error("revenue trends: expected error from failing store")
	}
	if _, err := svc.TotalRevenue(context.Background()); err == nil {
		t.Error("total revenue: expected error from failing store")
	}
}

func TestReportsHonorCancellation(t *testing.T) {
	store := memory.NewStore(time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newCashbox(store)
	if _, err := svc.TodaysSummary(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
