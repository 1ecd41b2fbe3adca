package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cashbox — summaries, revenue and reports
// ============================================================

func todaysSummaryHandler(svc *service.CashboxService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashbox/today")
		defer span.End()

		summary, err := svc.TodaysSummary(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// monthlySummaryHandler accepts optional ?year= and ?month= parameters.
// Both default to the current period when absent.
func monthlySummaryHandler(svc *service.CashboxService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashbox/monthly")
		defer span.End()

		var year, month int
		if v := r.URL.Query().Get("year"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "year must be an integer")
				return
			}
			year = n
		}
		if v := r.URL.Query().Get("month"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "month must be an integer")
				return
			}
			month = n
		}
		span.SetAttributes(attribute.Int("report.year", year), attribute.Int("report.month", month))

		summary, err := svc.MonthlySummary(ctx, year, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func totalRevenueHandler(svc *service.CashboxService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashbox/revenue/total")
		defer span.End()

		total, err := svc.TotalRevenue(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"totalRevenue": total})
	}
}

func revenueTrendsHandler(svc *service.CashboxService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashbox/revenue/trends")
		defer span.End()

		trend, err := svc.RevenueTrends(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

// parseReportDate validates the {date} path parameter before any store
// query is issued.
func parseReportDate(r *http.Request) (time.Time, error) {
	raw := chi.URLParam(r, "date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return date, nil
}

func dailyReportHandler(svc *service.CashboxService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashbox/reports/daily/{date}")
		defer span.End()

		date, err := parseReportDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		span.SetAttributes(attribute.String("report.date", date.Format("2006-01-02")))

		report, err := svc.DailyReport(ctx, date)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func dailyReportPDFHandler(svc *service.CashboxService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashbox/reports/daily/{date}/pdf")
		defer span.End()

		date, err := parseReportDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		report, err := svc.DailyReport(ctx, date)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		pdf, err := service.BuildDailyReportPDF(report)
		if err != nil {
			logger.Error("pdf generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not generate report")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "daily-report-"+report.Date+".pdf"))
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
	}
}
