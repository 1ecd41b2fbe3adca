package service

import (
	"bytes"
	"fmt"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"

	"github.com/phpdave11/gofpdf"
)

// BuildDailyReportPDF renders the daily closing report as a printable
// cashbox sheet.
func BuildDailyReportPDF(rep *domain.DailyReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Gym Cashbox Daily Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Cashbox Daily Report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", rep.Date))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Total Revenue: $%.2f", rep.Summary.TotalRevenue))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Refunds: $%.2f", rep.Summary.TotalRefunds))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Net Revenue: $%.2f", rep.Summary.NetRevenue))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Check-ins: %d    New subscriptions: %d    Expired memberships: %d",
		rep.Summary.TotalCheckIns, rep.Summary.NewSubscriptions, rep.Summary.ExpiredMemberships))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Transactions")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(30, 7, "Time")
	pdf.Cell(30, 7, "Type")
	pdf.Cell(60, 7, "Member")
	pdf.Cell(40, 7, "Amount")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 11)
	for _, tx := range rep.Details.Transactions {
		member := ""
		if tx.User != nil {
			member = tx.User.Name
		}
		pdf.Cell(30, 7, tx.CreatedAt.Format("15:04:05"))
		pdf.Cell(30, 7, string(tx.Type))
		pdf.Cell(60, 7, member)
		pdf.Cell(40, 7, fmt.Sprintf("$%.2f", tx.Amount))
		pdf.Ln(7)
	}
	if len(rep.Details.Transactions) == 0 {
		pdf.Cell(0, 7, "No transactions recorded.")
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
