package service

import (
	"context"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var membershipTracer = otel.Tracer("service/membership")

const activePlansCacheKey = "plans:active"

// MembershipService computes member and plan statistics for the dashboard.
// The plan catalog may be served from a short TTL cache — plans change
// rarely and are not financial figures; everything money-related still hits
// the ledger on every call.
type MembershipService struct {
	ledger    port.LedgerStore
	members   port.MemberDirectory
	planCache port.Cache[[]domain.Plan]
	metrics   *observability.Metrics
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewMembershipService creates the membership statistics service.
// clock may be nil, which means time.Now.
func NewMembershipService(
	ledger port.LedgerStore,
	members port.MemberDirectory,
	planCache port.Cache[[]domain.Plan],
	metrics *observability.Metrics,
	logger *zap.Logger,
	loc *time.Location,
	clock func() time.Time,
) *MembershipService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MembershipService{
		ledger:    ledger,
		members:   members,
		planCache: planCache,
		metrics:   metrics,
		logger:    logger,
		loc:       loc,
		now:       clock,
	}
}

// MemberStats returns the member-count rollup: total, active, new this
// month, and members holding a live subscription.
func (s *MembershipService) MemberStats(ctx context.Context) (*domain.MemberStats, error) {
	ctx, span := membershipTracer.Start(ctx, "MembershipService.MemberStats")
	defer span.End()

	now := s.now().In(s.loc)
	monthWindow := domain.MonthWindow(now.Year(), now.Month(), s.loc)

	var stats domain.MemberStats

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Total, err = s.members.CountMembers(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Active, err = s.members.CountActiveMembers(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.NewThisMonth, err = s.members.CountMembersCreated(gCtx, monthWindow)
		return err
	})
	g.Go(func() error {
		var err error
		stats.WithActivePlans, err = s.members.CountMembersWithLiveSubscription(gCtx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("member stats failed", zap.Error(err))
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")
	return &stats, nil
}

// PlanStats returns every active plan with its live subscription count and
// projected monthly revenue, plus the current month's total PAYMENT revenue.
func (s *MembershipService) PlanStats(ctx context.Context) (*domain.PlanStats, error) {
	ctx, span := membershipTracer.Start(ctx, "MembershipService.PlanStats")
	defer span.End()

	now := s.now().In(s.loc)

	var (
		plans        []domain.Plan
		subsByPlan   map[string]int
		revenueCents int64
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plans, err = s.activePlans(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		subsByPlan, err = s.members.CountLiveSubscriptionsByPlan(gCtx, now)
		return err
	})
	g.Go(func() error {
		var err error
		monthWindow := domain.MonthWindow(now.Year(), now.Month(), s.loc)
		revenueCents, err = s.ledger.SumAmountCents(gCtx, paymentFilter, monthWindow)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("plan stats failed", zap.Error(err))
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")

	stats := make([]domain.PlanStat, 0, len(plans))
	for _, p := range plans {
		count := subsByPlan[p.ID]
		stats = append(stats, domain.PlanStat{
			Plan:                p,
			ActiveSubscriptions: count,
			MonthlyRevenue:      domain.CentsToMajor(int64(count) * p.PriceCents),
		})
	}

	return &domain.PlanStats{
		Plans:               stats,
		TotalMonthlyRevenue: domain.CentsToMajor(revenueCents),
	}, nil
}

// PopularPlan returns the active plan with the most live subscriptions.
func (s *MembershipService) PopularPlan(ctx context.Context) (*domain.PlanStat, error) {
	ctx, span := membershipTracer.Start(ctx, "MembershipService.PopularPlan")
	defer span.End()

	now := s.now().In(s.loc)

	var (
		plans      []domain.Plan
		subsByPlan map[string]int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plans, err = s.activePlans(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		subsByPlan, err = s.members.CountLiveSubscriptionsByPlan(gCtx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("popular plan failed", zap.Error(err))
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")

	if len(plans) == 0 {
		return nil, &domain.ErrNotFound{Resource: "plan", ID: "popular"}
	}

	best := domain.PlanStat{Plan: plans[0], ActiveSubscriptions: subsByPlan[plans[0].ID]}
	for _, p := range plans[1:] {
		if subsByPlan[p.ID] > best.ActiveSubscriptions {
			best = domain.PlanStat{Plan: p, ActiveSubscriptions: subsByPlan[p.ID]}
		}
	}
	best.MonthlyRevenue = domain.CentsToMajor(int64(best.ActiveSubscriptions) * best.PriceCents)
	return &best, nil
}

// activePlans serves the plan catalog through the TTL cache.
func (s *MembershipService) activePlans(ctx context.Context) ([]domain.Plan, error) {
	if s.planCache != nil {
		if cached, ok := s.planCache.Get(activePlansCacheKey); ok {
			s.metrics.IncrCacheHit("plans")
			return cached, nil
		}
		s.metrics.IncrCacheMiss("plans")
	}

	plans, err := s.members.ListActivePlans(ctx)
	if err != nil {
		return nil, err
	}
	if s.planCache != nil {
		s.planCache.Set(activePlansCacheKey, plans)
	}
	return plans, nil
}
