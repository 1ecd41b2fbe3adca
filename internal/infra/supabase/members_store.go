package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
)

// ============================================================
// Member directory — members and plans (implements port.MemberDirectory)
// ============================================================

// memberRow maps the members table columns, plan embedded via PostgREST
// foreign-key select.
type memberRow struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PlanID              *string    `json:"plan_id"`
	Plan                *planRow   `json:"plan,omitempty"`
	MembershipStartDate *time.Time `json:"membership_start_date"`
	MembershipEndDate   *time.Time `json:"membership_end_date"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
}

// planRow maps the plans table columns.
type planRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	DurationDays int    `json:"duration_days"`
	Active       bool   `json:"active"`
}

func (r memberRow) toDomain() domain.Member {
	m := domain.Member{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		MembershipStartDate: r.MembershipStartDate,
		MembershipEndDate:   r.MembershipEndDate,
		Active:              r.Active,
		CreatedAt:           r.CreatedAt,
	}
	if r.PlanID != nil {
		m.PlanID = *r.PlanID
	}
	if r.Plan != nil {
		p := r.Plan.toDomain()
		m.Plan = &p
	}
	return m
}

func (r planRow) toDomain() domain.Plan {
	return domain.Plan{
		ID:           r.ID,
		Name:         r.Name,
		PriceCents:   r.PriceCents,
		DurationDays: r.DurationDays,
		Active:       r.Active,
	}
}

func (c *Client) fetchMembers(ctx context.Context, path string) ([]domain.Member, error) {
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return []domain.Member{}, nil
	}

	var rows []memberRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode members: %w", err)}
	}

	out := make([]domain.Member, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) countRows(ctx context.Context, path string) (int, error) {
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

// CountNewMembersWithPlan counts members whose membership started in the
// window and who carry a plan.
func (c *Client) CountNewMembersWithPlan(ctx context.Context, w domain.Window) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountNewMembersWithPlan")
	defer span.End()

	path := "members?select=id&plan_id=not.is.null"
	path = appendFilter(path, windowFilter("membership_start_date", w))
	return c.countRows(ctx, path)
}

// ListNewMembersWithPlan lists those members with their plan embedded.
func (c *Client) ListNewMembersWithPlan(ctx context.Context, w domain.Window) ([]domain.Member, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListNewMembersWithPlan")
	defer span.End()

	path := "members?select=*,plan:plans(*)&plan_id=not.is.null&order=membership_start_date.desc"
	path = appendFilter(path, windowFilter("membership_start_date", w))
	return c.fetchMembers(ctx, path)
}

// ListExpiredActiveMembers lists still-active members whose membership ended
// inside the window.
func (c *Client) ListExpiredActiveMembers(ctx context.Context, w domain.Window) ([]domain.Member, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpiredActiveMembers")
	defer span.End()

	path := "members?select=*,plan:plans(*)&active=is.true&order=membership_end_date.desc"
	path = appendFilter(path, windowFilter("membership_end_date", w))
	return c.fetchMembers(ctx, path)
}

// CountMembersCreated counts members registered in the window, plan or not.
func (c *Client) CountMembersCreated(ctx context.Context, w domain.Window) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountMembersCreated")
	defer span.End()

	path := "members?select=id"
	path = appendFilter(path, windowFilter("created_at", w))
	return c.countRows(ctx, path)
}

// CountMembers counts every registered member.
func (c *Client) CountMembers(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountMembers")
	defer span.End()

	return c.countRows(ctx, "members?select=id")
}

// CountActiveMembers counts members flagged active.
func (c *Client) CountActiveMembers(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountActiveMembers")
	defer span.End()

	return c.countRows(ctx, "members?select=id&active=is.true")
}

// CountMembersWithLiveSubscription counts active members with a plan whose
// membership has not yet ended as of the instant.
func (c *Client) CountMembersWithLiveSubscription(ctx context.Context, asOf time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountMembersWithLiveSubscription")
	defer span.End()

	path := fmt.Sprintf("members?select=id&active=is.true&plan_id=not.is.null&membership_end_date=gt.%s",
		pgTimestamp(asOf))
	return c.countRows(ctx, path)
}

// ListActivePlans returns every active plan.
func (c *Client) ListActivePlans(ctx context.Context) ([]domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActivePlans")
	defer span.End()

	body, err := c.doRequest(ctx, "plans?select=*&active=is.true&order=price_cents.asc")
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return []domain.Plan{}, nil
	}

	var rows []planRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode plans: %w", err)}
	}

	out := make([]domain.Plan, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CountLiveSubscriptionsByPlan groups live subscriptions by plan in Go; the
// fetch carries only the plan_id column.
func (c *Client) CountLiveSubscriptionsByPlan(ctx context.Context, asOf time.Time) (map[string]int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountLiveSubscriptionsByPlan")
	defer span.End()

	path := fmt.Sprintf("members?select=plan_id&active=is.true&plan_id=not.is.null&membership_end_date=gt.%s",
		pgTimestamp(asOf))
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	if body == nil {
		return counts, nil
	}

	var rows []struct {
		PlanID string `json:"plan_id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("decode plan ids: %w", err)}
	}
	for _, r := range rows {
		counts[r.PlanID]++
	}
	return counts, nil
}
