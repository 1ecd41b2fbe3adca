// Package memory provides an in-memory implementation of the ledger and
// member directory ports. It backs local development (no Supabase
// configured) and the service-layer tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/port"

	"github.com/google/uuid"
)

// Store is a thread-safe in-memory ledger + member directory.
// Records are immutable once added, matching the append-mostly ledger model.
type Store struct {
	mu           sync.RWMutex
	loc          *time.Location
	transactions []domain.Transaction
	checkIns     []domain.CheckIn
	members      []domain.Member
	plans        []domain.Plan
}

// NewStore creates an empty store. loc is the timezone used for day
// grouping; nil means UTC.
func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{loc: loc}
}

// AddTransaction appends a ledger entry. An empty ID gets a generated one.
func (s *Store) AddTransaction(t domain.Transaction) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}
	s.transactions = append(s.transactions, t)
	return t
}

// AddCheckIn appends a check-in event.
func (s *Store) AddCheckIn(c domain.CheckIn) domain.CheckIn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.checkIns = append(s.checkIns, c)
	return c
}

// AddMember registers a member.
func (s *Store) AddMember(m domain.Member) domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	s.members = append(s.members, m)
	return m
}

// AddPlan registers a plan.
func (s *Store) AddPlan(p domain.Plan) domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	s.plans = append(s.plans, p)
	return p
}

// --- port.LedgerStore ---

func (s *Store) SumAmountCents(ctx context.Context, f port.TransactionFilter, w domain.Window) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, t := range s.transactions {
		if matches(t, f) && w.Contains(t.CreatedAt) {
			sum += t.AmountCents
		}
	}
	return sum, nil
}

func (s *Store) CountTransactions(ctx context.Context, f port.TransactionFilter, w domain.Window) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.transactions {
		if matches(t, f) && w.Contains(t.CreatedAt) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListTransactions(ctx context.Context, w domain.Window, includeUserInfo bool) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, t := range s.transactions {
		if !w.Contains(t.CreatedAt) {
			continue
		}
		if includeUserInfo && t.User == nil && t.UserID != "" {
			if m := s.memberByID(t.UserID); m != nil {
				t.User = &domain.MemberRef{Name: m.Name, Email: m.Email}
			}
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CountCheckIns(ctx context.Context, w domain.Window) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.checkIns {
		if w.Contains(c.At) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListCheckIns(ctx context.Context, w domain.Window, includeUserInfo bool) ([]domain.CheckIn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CheckIn, 0)
	for _, c := range s.checkIns {
		if !w.Contains(c.At) {
			continue
		}
		if includeUserInfo && c.User == nil && c.UserID != "" {
			if m := s.memberByID(c.UserID); m != nil {
				c.User = &domain.MemberRef{Name: m.Name, Email: m.Email}
			}
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	return out, nil
}

func (s *Store) GroupDailyPaymentTotals(ctx context.Context, w domain.Window) ([]domain.DailyRevenue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]*domain.DailyRevenue)
	for _, t := range s.transactions {
		if t.Type != domain.TransactionPayment || !w.Contains(t.CreatedAt) {
			continue
		}
		day := t.CreatedAt.In(s.loc).Format("2006-01-02")
		dr, ok := totals[day]
		if !ok {
			dr = &domain.DailyRevenue{Date: day}
			totals[day] = dr
		}
		dr.TotalCents += t.AmountCents
		dr.Count++
	}

	out := make([]domain.DailyRevenue, 0, len(totals))
	for _, dr := range totals {
		out = append(out, *dr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// --- port.MemberDirectory ---

func (s *Store) CountNewMembersWithPlan(ctx context.Context, w domain.Window) (int, error) {
	members, err := s.ListNewMembersWithPlan(ctx, w)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

func (s *Store) ListNewMembersWithPlan(ctx context.Context, w domain.Window) ([]domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Member, 0)
	for _, m := range s.members {
		if m.PlanID == "" || m.MembershipStartDate == nil || !w.Contains(*m.MembershipStartDate) {
			continue
		}
		if m.Plan == nil {
			m.Plan = s.planByID(m.PlanID)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) ListExpiredActiveMembers(ctx context.Context, w domain.Window) ([]domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Member, 0)
	for _, m := range s.members {
		if !m.Active || m.MembershipEndDate == nil || !w.Contains(*m.MembershipEndDate) {
			continue
		}
		if m.Plan == nil && m.PlanID != "" {
			m.Plan = s.planByID(m.PlanID)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) CountMembersCreated(ctx context.Context, w domain.Window) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.members {
		if w.Contains(m.CreatedAt) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountMembers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}

func (s *Store) CountActiveMembers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.members {
		if m.Active {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountMembersWithLiveSubscription(ctx context.Context, asOf time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.members {
		if liveSubscription(m, asOf) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListActivePlans(ctx context.Context) ([]domain.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Plan, 0)
	for _, p := range s.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

func (s *Store) CountLiveSubscriptionsByPlan(ctx context.Context, asOf time.Time) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, m := range s.members {
		if liveSubscription(m, asOf) {
			counts[m.PlanID]++
		}
	}
	return counts, nil
}

// --- helpers ---

// memberByID assumes the read lock is held.
func (s *Store) memberByID(id string) *domain.Member {
	for i := range s.members {
		if s.members[i].ID == id {
			return &s.members[i]
		}
	}
	return nil
}

// planByID assumes the read lock is held.
func (s *Store) planByID(id string) *domain.Plan {
	for i := range s.plans {
		if s.plans[i].ID == id {
			return &s.plans[i]
		}
	}
	return nil
}

func liveSubscription(m domain.Member, asOf time.Time) bool {
	return m.Active && m.PlanID != "" &&
		m.MembershipEndDate != nil && m.MembershipEndDate.After(asOf)
}

func matches(t domain.Transaction, f port.TransactionFilter) bool {
	if len(f.Types) > 0 {
		found := false
		for _, typ := range f.Types {
			if t.Type == typ {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch f.Sign {
	case port.NegativeOnly:
		return t.AmountCents < 0
	case port.PositiveOnly:
		return t.AmountCents > 0
	}
	return true
}
