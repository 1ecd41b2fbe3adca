package handler

import (
	"net/http"

	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard — composed KPI view
// ============================================================

func dashboardStatsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/stats")
		defer span.End()

		stats, err := svc.Stats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
