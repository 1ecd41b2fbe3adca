package handler

import (
	"net/http"

	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Members & plans
// ============================================================

func memberStatsHandler(svc *service.MembershipService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/members/stats")
		defer span.End()

		stats, err := svc.MemberStats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func planStatsHandler(svc *service.MembershipService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/plans/stats")
		defer span.End()

		stats, err := svc.PlanStats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func popularPlanHandler(svc *service.MembershipService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/plans/popular")
		defer span.End()

		plan, err := svc.PopularPlan(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}
