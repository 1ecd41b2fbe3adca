package service

import (
	"context"
	"errors"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService composes the cashbox and membership figures into the
// single KPI payload the operator dashboard renders.
type DashboardService struct {
	cashbox    *CashboxService
	membership *MembershipService
	logger     *zap.Logger
}

// NewDashboardService creates the dashboard composition service.
func NewDashboardService(cashbox *CashboxService, membership *MembershipService, logger *zap.Logger) *DashboardService {
	return &DashboardService{cashbox: cashbox, membership: membership, logger: logger}
}

// Stats fans out to today's summary, lifetime revenue, the 7-day trend,
// member stats and the most popular plan. Like every report, it fails
// atomically: a single store error fails the whole payload.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Stats")
	defer span.End()

	start := time.Now()
	defer func() {
		s.cashbox.metrics.RecordRequestDuration("dashboard.stats", time.Since(start))
	}()

	var (
		today        *domain.TodaysSummary
		totalRevenue float64
		trend        *domain.RevenueTrend
		memberStats  *domain.MemberStats
		popular      *domain.PlanStat
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.cashbox.TodaysSummary(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		totalRevenue, err = s.cashbox.TotalRevenue(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = s.cashbox.RevenueTrends(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		memberStats, err = s.membership.MemberStats(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		popular, err = s.membership.PopularPlan(gCtx)
		// A gym with no active plans still has a dashboard.
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			popular = nil
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard stats failed", zap.Error(err))
		return nil, err
	}

	stats := &domain.DashboardStats{
		DailyRevenue:    today.Revenue,
		DailyVisitors:   today.CheckIns,
		TotalRevenue:    totalRevenue,
		ActiveMembers:   memberStats.Active,
		NewMembersToday: today.NewSubscriptions,
		RevenueTrend:    *trend,
	}
	if popular != nil {
		stats.PopularPlan = popular.Name
	}
	return stats, nil
}
