package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/cache"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/memory"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"go.uber.org/zap"
)

func newMembership(store *memory.Store) *service.MembershipService {
	return service.NewMembershipService(store, store,
		cache.New[[]domain.Plan](5*time.Minute),
		observability.NewMetrics(), zap.NewNop(), time.UTC, fixedClock)
}

func seedMembers(store *memory.Store) (basic, premium domain.Plan) {
	basic = store.AddPlan(domain.Plan{ID: "p-basic", Name: "Basic", PriceCents: 2999, DurationDays: 30, Active: true})
	premium = store.AddPlan(domain.Plan{ID: "p-premium", Name: "Premium", PriceCents: 4999, DurationDays: 30, Active: true})
	store.AddPlan(domain.Plan{ID: "p-old", Name: "Legacy", PriceCents: 1999, Active: false})

	future := testNow.AddDate(0, 1, 0)
	past := testNow.AddDate(0, -1, 0)
	thisMonth := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	// Two live Premium subscribers, one live Basic.
	store.AddMember(domain.Member{ID: "m1", PlanID: premium.ID, Active: true,
		MembershipEndDate: &future, CreatedAt: thisMonth})
	store.AddMember(domain.Member{ID: "m2", PlanID: premium.ID, Active: true,
		MembershipEndDate: &future, CreatedAt: past})
	store.AddMember(domain.Member{ID: "m3", PlanID: basic.ID, Active: true,
		MembershipEndDate: &future, CreatedAt: past})
	// Expired subscription: active flag but membership over.
	store.AddMember(domain.Member{ID: "m4", PlanID: basic.ID, Active: true,
		MembershipEndDate: &past, CreatedAt: past})
	// Inactive member, no plan.
	store.AddMember(domain.Member{ID: "m5", Active: false, CreatedAt: past})
	return basic, premium
}

func TestMemberStats(t *testing.T) {
	store := memory.NewStore(time.UTC)
	seedMembers(store)

	svc := newMembership(store)
	stats, err := svc.MemberStats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if stats.Total != 5 {
		t.Errorf("expected 5 members total, got %d", stats.Total)
	}
	if stats.Active != 4 {
		t.Errorf("expected 4 active members, got %d", stats.Active)
	}
	if stats.NewThisMonth != 1 {
		t.Errorf("expected 1 new member this month, got %d", stats.NewThisMonth)
	}
	if stats.WithActivePlans != 3 {
		t.Errorf("expected 3 live subscriptions, got %d", stats.WithActivePlans)
	}
}

func TestPlanStats(t *testing.T) {
	store := memory.NewStore(time.UTC)
	seedMembers(store)
	store.AddTransaction(domain.Transaction{
		Type: domain.TransactionPayment, AmountCents: 7998,
		CreatedAt: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
	})

	svc := newMembership(store)
	stats, err := svc.PlanStats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Inactive plans are excluded; active plans sorted by price.
	if len(stats.Plans) != 2 {
		t.Fatalf("expected 2 active plans, got %d", len(stats.Plans))
	}
	if stats.Plans[0].Name != "Basic" || stats.Plans[1].Name != "Premium" {
		t.Errorf("expected Basic then Premium, got %s then %s", stats.Plans[0].Name, stats.Plans[1].Name)
	}
	if stats.Plans[1].ActiveSubscriptions != 2 {
		t.Errorf("expected 2 premium subscriptions, got %d", stats.Plans[1].ActiveSubscriptions)
	}
	if stats.Plans[1].MonthlyRevenue != 99.98 {
		t.Errorf("expected premium monthly revenue 99.98, got %v", stats.Plans[1].MonthlyRevenue)
	}
	if stats.TotalMonthlyRevenue != 79.98 {
		t.Errorf("expected month payment total 79.98, got %v", stats.TotalMonthlyRevenue)
	}
}

func TestPopularPlan(t *testing.T) {
	store := memory.NewStore(time.UTC)
	seedMembers(store)

	svc := newMembership(store)
	plan, err := svc.PopularPlan(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if plan.Name != "Premium" {
		t.Errorf("expected Premium as most popular, got %s", plan.Name)
	}
	if plan.ActiveSubscriptions != 2 {
		t.Errorf("expected 2 subscriptions, got %d", plan.ActiveSubscriptions)
	}
}

func TestPopularPlan_NoActivePlans(t *testing.T) {
	store := memory.NewStore(time.UTC)

	svc := newMembership(store)
	_, err := svc.PopularPlan(context.Background())
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestPlanCatalogCached(t *testing.T) {
	store := memory.NewStore(time.UTC)
	seedMembers(store)

	svc := newMembership(store)
	if _, err := svc.PlanStats(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// A plan added after the first call stays invisible until the TTL
	// expires — the catalog is the one thing served from cache.
	store.AddPlan(domain.Plan{ID: "p-new", Name: "Student", PriceCents: 999, Active: true})

	stats, err := svc.PlanStats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(stats.Plans) != 2 {
		t.Errorf("expected cached catalog of 2 plans, got %d", len(stats.Plans))
	}
}
