package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/port"
)

// ============================================================
// Ledger — transactions and check-ins (implements port.LedgerStore)
// ============================================================

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID          string     `json:"id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	UserID      *string    `json:"user_id"`
	User        *memberRef `json:"user,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type memberRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// checkInRow maps the check_ins table columns.
type checkInRow struct {
	ID     string     `json:"id"`
	UserID string     `json:"user_id"`
	At     time.Time  `json:"at"`
	Method string     `json:"method"`
	User   *memberRef `json:"user,omitempty"`
}

// transactionFilter renders type and sign conditions for PostgREST.
func transactionFilter(f port.TransactionFilter) string {
	var parts []string
	switch len(f.Types) {
	case 0:
		// all types
	case 1:
		parts = append(parts, fmt.Sprintf("type=eq.%s", f.Types[0]))
	default:
		names := make([]string, len(f.Types))
		for i, t := range f.Types {
			names[i] = string(t)
		}
		parts = append(parts, fmt.Sprintf("type=in.(%s)", strings.Join(names, ",")))
	}
	switch f.Sign {
	case port.NegativeOnly:
		parts = append(parts, "amount_cents=lt.0")
	case port.PositiveOnly:
		parts = append(parts, "amount_cents=gt.0")
	}
	return strings.Join(parts, "&")
}

// SumAmountCents fetches the matching amount column and sums in integer
// cents. PostgREST does the filtering; the arithmetic stays on our side so
// any backing store can satisfy the port without SQL aggregates.
func (c *Client) SumAmountCents(ctx context.Context, f port.TransactionFilter, w domain.Window) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SumAmountCents")
	defer span.End()

	path := "transactions?select=amount_cents"
	path = appendFilter(path, transactionFilter(f))
	path = appendFilter(path, windowFilter("created_at", w))

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return 0, err
	}
	if body == nil {
		return 0, nil
	}

	var rows []struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode amounts: %w", err)}
	}

	var sum int64
	for _, r := range rows {
		sum += r.AmountCents
	}
	return sum, nil
}

// CountTransactions counts matching rows.
func (c *Client) CountTransactions(ctx context.Context, f port.TransactionFilter, w domain.Window) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountTransactions")
	defer span.End()

	path := "transactions?select=id"
	path = appendFilter(path, transactionFilter(f))
	path = appendFilter(path, windowFilter("created_at", w))

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return 0, err
	}
	if body == nil {
		return 0, nil
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode ids: %w", err)}
	}
	return len(rows), nil
}

// ListTransactions returns every transaction in the window, newest first.
func (c *Client) ListTransactions(ctx context.Context, w domain.Window, includeUserInfo bool) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	sel := "*"
	if includeUserInfo {
		sel = "*,user:members(name,email)"
	}
	path := fmt.Sprintf("transactions?select=%s&order=created_at.desc", sel)
	path = appendFilter(path, windowFilter("created_at", w))

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return []domain.Transaction{}, nil
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode transactions: %w", err)}
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (r transactionRow) toDomain() domain.Transaction {
	t := domain.Transaction{
		ID:          r.ID,
		AmountCents: r.AmountCents,
		Currency:    r.Currency,
		Type:        domain.TransactionType(r.Type),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if r.UserID != nil {
		t.UserID = *r.UserID
	}
	if r.User != nil {
		t.User = &domain.MemberRef{Name: r.User.Name, Email: r.User.Email}
	}
	return t
}

// CountCheckIns counts check-ins in the window.
func (c *Client) CountCheckIns(ctx context.Context, w domain.Window) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountCheckIns")
	defer span.End()

	path := "check_ins?select=id"
	path = appendFilter(path, windowFilter("at", w))

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return 0, err
	}
	if body == nil {
		return 0, nil
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode ids: %w", err)}
	}
	return len(rows), nil
}

// ListCheckIns returns check-ins in the window, newest first.
func (c *Client) ListCheckIns(ctx context.Context, w domain.Window, includeUserInfo bool) ([]domain.CheckIn, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCheckIns")
	defer span.End()

	sel := "*"
	if includeUserInfo {
		sel = "*,user:members(name,email)"
	}
	path := fmt.Sprintf("check_ins?select=%s&order=at.desc", sel)
	path = appendFilter(path, windowFilter("at", w))

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return []domain.CheckIn{}, nil
	}

	var rows []checkInRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode check-ins: %w", err)}
	}

	out := make([]domain.CheckIn, 0, len(rows))
	for _, r := range rows {
		ci := domain.CheckIn{ID: r.ID, UserID: r.UserID, At: r.At, Method: r.Method}
		if r.User != nil {
			ci.User = &domain.MemberRef{Name: r.User.Name, Email: r.User.Email}
		}
		out = append(out, ci)
	}
	return out, nil
}

// GroupDailyPaymentTotals fetches the month's payments and groups them by
// calendar day in the reporting timezone, ascending.
func (c *Client) GroupDailyPaymentTotals(ctx context.Context, w domain.Window) ([]domain.DailyRevenue, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GroupDailyPaymentTotals")
	defer span.End()

	path := fmt.Sprintf("transactions?select=amount_cents,created_at&type=eq.%s", domain.TransactionPayment)
	path = appendFilter(path, windowFilter("created_at", w))

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return []domain.DailyRevenue{}, nil
	}

	var rows []struct {
		AmountCents int64     `json:"amount_cents"`
		CreatedAt   time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode payments: %w", err)}
	}

	totals := make(map[string]*domain.DailyRevenue)
	for _, r := range rows {
		day := r.CreatedAt.In(c.loc).Format("2006-01-02")
		dr, ok := totals[day]
		if !ok {
			dr = &domain.DailyRevenue{Date: day}
			totals[day] = dr
		}
		dr.TotalCents += r.AmountCents
		dr.Count++
	}

	out := make([]domain.DailyRevenue, 0, len(totals))
	for _, dr := range totals {
		out = append(out, *dr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
