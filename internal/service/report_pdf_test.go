package service_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/service"
)

func TestBuildDailyReportPDF(t *testing.T) {
	report := &domain.DailyReport{
		Date: "2026-03-10",
		Summary: domain.DailyReportSummary{
			TotalRevenue:  49.99,
			TotalRefunds:  10.00,
			NetRevenue:    39.99,
			TotalCheckIns: 3,
		},
		Details: domain.DailyReportDetails{
			Transactions: []domain.TransactionDetail{
				{
					Transaction: domain.Transaction{
						ID: "tx-1", Type: domain.TransactionPayment, AmountCents: 4999,
						User:      &domain.MemberRef{Name: "Ana"},
						CreatedAt: time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
					},
					Amount: 49.99,
				},
			},
		},
	}

	pdf, err := service.BuildDailyReportPDF(report)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
}

func TestBuildDailyReportPDF_EmptyDay(t *testing.T) {
	report := &domain.DailyReport{
		Date:    "2026-03-01",
		Details: domain.DailyReportDetails{Transactions: []domain.TransactionDetail{}},
	}

	pdf, err := service.BuildDailyReportPDF(report)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pdf) == 0 {
		t.Error("expected non-empty document for an empty day")
	}
}
