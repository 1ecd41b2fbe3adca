package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/memory"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"go.uber.org/zap"
)

func newDashboard(store *memory.Store) *service.DashboardService {
	return service.NewDashboardService(newCashbox(store), newMembership(store), zap.NewNop())
}

func TestDashboardStats(t *testing.T) {
	store := memory.NewStore(time.UTC)
	seedMembers(store)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 4999, CreatedAt: testNow,
	})
	store.AddCheckIn(domain.CheckIn{UserID: "m1", At: testNow.Add(-time.Hour)})

	svc := newDashboard(store)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if stats.DailyRevenue != 49.99 {
		t.Errorf("expected daily revenue 49.99, got %v", stats.DailyRevenue)
	}
	if stats.DailyVisitors != 1 {
		t.Errorf("expected 1 visitor, got %d", stats.DailyVisitors)
	}
	if stats.TotalRevenue != 49.99 {
		t.Errorf("expected total revenue 49.99, got %v", stats.TotalRevenue)
	}
	if stats.ActiveMembers != 4 {
		t.Errorf("expected 4 active members, got %d", stats.ActiveMembers)
	}
	if stats.PopularPlan != "Premium" {
		t.Errorf("expected popular plan Premium, got %q", stats.PopularPlan)
	}
	if !stats.RevenueTrend.IsPositive {
		t.Error("expected positive trend")
	}
}

func TestDashboardStats_NoPlans(t *testing.T) {
	// A gym with no active plans still gets a dashboard, just without a
	// popular plan name.
	store := memory.NewStore(time.UTC)

	svc := newDashboard(store)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stats.PopularPlan != "" {
		t.Errorf("expected empty popular plan, got %q", stats.PopularPlan)
	}
}

func TestDashboardStats_StoreFailure(t *testing.T) {
	cashbox := service.NewCashboxService(&failingLedger{}, memory.NewStore(time.UTC),
		observability.NewMetrics(), zap.NewNop(), time.UTC, fixedClock)
	svc := service.NewDashboardService(cashbox, newMembership(memory.NewStore(time.UTC)), zap.NewNop())

	if _, err := svc.Stats(context.Background()); err == nil {
		t.Error("expected error from failing store")
	}
}
