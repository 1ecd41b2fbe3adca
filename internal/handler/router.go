package handler

import (
	"net/http"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/config"
	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/port"
	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the gym admin frontend.
func NewRouter(
	cashboxSvc *service.CashboxService,
	membershipSvc *service.MembershipService,
	dashboardSvc *service.DashboardService,
	ledger port.LedgerStore,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(ledger, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if !cfg.AuthDisabled {
			r.Use(JWTAuthMiddleware(cfg.JWTSecret, logger))
		}

		// =============================================
		// Cashbox — summaries, revenue and reports
		// =============================================
		r.Route("/cashbox", func(r chi.Router) {
			r.Get("/today", todaysSummaryHandler(cashboxSvc, logger))
			r.Get("/monthly", monthlySummaryHandler(cashboxSvc, logger))
			r.Get("/revenue/total", totalRevenueHandler(cashboxSvc, logger))
			r.Get("/revenue/trends", revenueTrendsHandler(cashboxSvc, logger))
			r.Get("/reports/daily/{date}", dailyReportHandler(cashboxSvc, logger))
			r.Get("/reports/daily/{date}/pdf", dailyReportPDFHandler(cashboxSvc, logger))
		})

		// =============================================
		// Dashboard
		// =============================================
		r.Get("/dashboard/stats", dashboardStatsHandler(dashboardSvc, logger))

		// =============================================
		// Members & plans
		// =============================================
		r.Get("/members/stats", memberStatsHandler(membershipSvc, logger))
		r.Get("/plans/stats", planStatsHandler(membershipSvc, logger))
		r.Get("/plans/popular", popularPlanHandler(membershipSvc, logger))

		// =============================================
		// Operational metrics snapshot
		// =============================================
		r.Get("/metrics/cashbox", cashboxMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(ledger port.LedgerStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now()
		nowStr := now.Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "gym-cashbox-api", Status: "healthy", LatencyMs: 0, LastChecked: nowStr},
		}

		start := time.Now()
		_, err := ledger.CountCheckIns(ctx, domain.DayWindow(now))
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			logger.Warn("healthz: ledger probe failed", zap.Error(err))
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "ledger", Status: status, LatencyMs: latency, LastChecked: nowStr,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Operational metrics snapshot
// ============================================================

func cashboxMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetCashboxSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}
