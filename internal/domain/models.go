// Package domain defines the core business entities for the gym cashbox
// service. These models are independent of the persistence layer and
// represent the canonical data structures used throughout the application.
package domain

import "time"

// ============================================================
// Ledger entities
// ============================================================

// TransactionType classifies a monetary ledger entry.
type TransactionType string

const (
	TransactionPayment TransactionType = "PAYMENT"
	TransactionRefund  TransactionType = "REFUND"
	TransactionManual  TransactionType = "MANUAL"
)

// Transaction is a monetary ledger entry. Amounts are stored as signed
// integer cents: positive = inflow, negative = outflow. The type does not
// imply the sign — a MANUAL entry can go either way.
type Transaction struct {
	ID          string          `json:"id"`
	AmountCents int64           `json:"amountCents"`
	Currency    string          `json:"currency"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	UserID      string          `json:"userId,omitempty"`
	User        *MemberRef      `json:"user,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// TransactionDetail is a transaction enriched with the derived major-unit
// amount, as exposed to presentation layers.
type TransactionDetail struct {
	Transaction
	Amount float64 `json:"amount"`
}

// CheckIn is a single gym-visit event.
type CheckIn struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	At     time.Time  `json:"at"`
	Method string     `json:"method"`
	User   *MemberRef `json:"user,omitempty"`
}

// MemberRef is the minimal member info attached to ledger records for display.
type MemberRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ============================================================
// Members & plans
// ============================================================

// Member is a gym member. Only the fields the reporting engine reads.
type Member struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PlanID              string     `json:"planId,omitempty"`
	Plan                *Plan      `json:"plan,omitempty"`
	MembershipStartDate *time.Time `json:"membershipStartDate,omitempty"`
	MembershipEndDate   *time.Time `json:"membershipEndDate,omitempty"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Plan is a gym membership plan.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"priceCents"`
	DurationDays int    `json:"durationDays,omitempty"`
	Active       bool   `json:"active"`
}

// ============================================================
// Cashbox summaries
// ============================================================

// TodaysSummary holds the current day's headline figures.
// Revenue counts PAYMENT entries only; the Transactions list includes
// every type so consumers can classify by sign and type independently.
type TodaysSummary struct {
	Revenue                 float64             `json:"revenue"`
	RevenueTransactionCount int                 `json:"revenueTransactionCount"`
	CheckIns                int                 `json:"checkIns"`
	NewSubscriptions        int                 `json:"newSubscriptions"`
	Transactions            []TransactionDetail `json:"transactions"`
}

// DailyRevenue is one day's PAYMENT total inside a monthly breakdown.
type DailyRevenue struct {
	Date       string `json:"date"` // YYYY-MM-DD
	TotalCents int64  `json:"totalCents"`
	Count      int    `json:"transactionCount"`
}

// MonthlySummary is a calendar month's financial and activity rollup.
// Expenses are the absolute value of negative-signed REFUND/MANUAL entries;
// a positive MANUAL credit appears in neither revenue nor expenses.
type MonthlySummary struct {
	Year           int            `json:"year"`
	Month          int            `json:"month"`
	Revenue        float64        `json:"revenue"`
	Expenses       float64        `json:"expenses"`
	NetIncome      float64        `json:"netIncome"`
	CheckIns       int            `json:"checkIns"`
	NewUsers       int            `json:"newUsers"`
	DailyBreakdown []DailyRevenue `json:"dailyBreakdown"`
}

// RevenueTrend compares the most recent 7 days against the preceding 7.
// When the previous period had zero revenue, Change is 0 — not infinity.
type RevenueTrend struct {
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	Change     float64 `json:"change"`
	IsPositive bool    `json:"isPositive"`
}

// ============================================================
// Daily report
// ============================================================

// DailyReport is the full auditable closing report for one calendar day.
type DailyReport struct {
	Date    string             `json:"date"` // YYYY-MM-DD
	Summary DailyReportSummary `json:"summary"`
	Details DailyReportDetails `json:"details"`
}

// DailyReportSummary holds the day's computed totals.
// TotalRefunds counts REFUND entries only (not MANUAL debits).
type DailyReportSummary struct {
	TotalRevenue       float64 `json:"totalRevenue"`
	TotalRefunds       float64 `json:"totalRefunds"`
	NetRevenue         float64 `json:"netRevenue"`
	TotalCheckIns      int     `json:"totalCheckIns"`
	NewSubscriptions   int     `json:"newSubscriptions"`
	ExpiredMemberships int     `json:"expiredMemberships"`
}

// DailyReportDetails lists every record behind the summary figures.
type DailyReportDetails struct {
	Transactions       []TransactionDetail `json:"transactions"`
	CheckIns           []CheckIn           `json:"checkIns"`
	NewSubscriptions   []Member            `json:"newSubscriptions"`
	ExpiredMemberships []Member            `json:"expiredMemberships"`
}

// ============================================================
// Membership & plan statistics
// ============================================================

// MemberStats is the member-count rollup shown on the dashboard.
type MemberStats struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	NewThisMonth    int `json:"newThisMonth"`
	WithActivePlans int `json:"withActivePlans"`
}

// PlanStat is one active plan with its live subscription figures.
type PlanStat struct {
	Plan
	ActiveSubscriptions int     `json:"activeSubscriptions"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
}

// PlanStats aggregates all active plans plus the current month's PAYMENT total.
type PlanStats struct {
	Plans               []PlanStat `json:"plans"`
	TotalMonthlyRevenue float64    `json:"totalMonthlyRevenue"`
}

// ============================================================
// Dashboard
// ============================================================

// DashboardStats is the composed KPI view backing the operator dashboard.
type DashboardStats struct {
	DailyRevenue    float64      `json:"dailyRevenue"`
	DailyVisitors   int          `json:"dailyVisitors"`
	TotalRevenue    float64      `json:"totalRevenue"`
	ActiveMembers   int          `json:"activeMembers"`
	NewMembersToday int          `json:"newMembersToday"`
	PopularPlan     string       `json:"popularPlan"`
	RevenueTrend    RevenueTrend `json:"revenueTrend"`
}

// ============================================================
// Operational
// ============================================================

// CashboxMetrics is a snapshot of service counters for GET /v1/metrics/cashbox.
type CashboxMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	LedgerErrors  int64   `json:"ledger_errors"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Period        string  `json:"period"`
}

// SuccessResponse is a generic success message payload.
type SuccessResponse struct {
	Message string `json:"message"`
}

// ServiceHealth is one dependency's health probe result.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is the aggregate health report.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// CentsToMajor converts integer cents to major currency units. All internal
// arithmetic stays in cents; this conversion happens only at output boundaries.
func CentsToMajor(cents int64) float64 {
	return float64(cents) / 100
}
