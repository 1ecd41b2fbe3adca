// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
)

// SignFilter restricts a transaction query by the sign of amount_cents.
type SignFilter int

const (
	AnySign SignFilter = iota
	NegativeOnly
	PositiveOnly
)

// TransactionFilter selects ledger entries by type and sign. An empty Types
// slice matches every type.
type TransactionFilter struct {
	Types []domain.TransactionType
	Sign  SignFilter
}

// LedgerStore is the read-only query interface the reporting engine requires
// from the transaction/check-in ledger. Implemented by the Supabase adapter
// and by the in-memory store used for dev mode and tests.
//
// All monetary figures cross this boundary as integer cents; the engine
// converts to major units only at its own output boundary.
type LedgerStore interface {
	// SumAmountCents sums amount_cents over matching transactions in the window.
	SumAmountCents(ctx context.Context, f TransactionFilter, w domain.Window) (int64, error)

	// CountTransactions counts matching transactions in the window.
	CountTransactions(ctx context.Context, f TransactionFilter, w domain.Window) (int, error)

	// ListTransactions returns every transaction in the window, newest first.
	ListTransactions(ctx context.Context, w domain.Window, includeUserInfo bool) ([]domain.Transaction, error)

	// CountCheckIns counts check-ins in the window.
	CountCheckIns(ctx context.Context, w domain.Window) (int, error)

	// ListCheckIns returns check-ins in the window, newest first.
	ListCheckIns(ctx context.Context, w domain.Window, includeUserInfo bool) ([]domain.CheckIn, error)

	// GroupDailyPaymentTotals returns per-day PAYMENT totals for days in the
	// window that have at least one payment, ordered by date ascending.
	GroupDailyPaymentTotals(ctx context.Context, w domain.Window) ([]domain.DailyRevenue, error)
}

// MemberDirectory is the read-only query interface over members and plans.
type MemberDirectory interface {
	// CountNewMembersWithPlan counts members whose membership started in the
	// window and who have a plan assigned.
	CountNewMembersWithPlan(ctx context.Context, w domain.Window) (int, error)

	// ListNewMembersWithPlan lists those members, plan included.
	ListNewMembersWithPlan(ctx context.Context, w domain.Window) ([]domain.Member, error)

	// ListExpiredActiveMembers lists still-active members whose membership
	// ended inside the window, plan included.
	ListExpiredActiveMembers(ctx context.Context, w domain.Window) ([]domain.Member, error)

	// CountMembersCreated counts members created in the window, plan or not.
	CountMembersCreated(ctx context.Context, w domain.Window) (int, error)

	// CountMembers counts all members ever registered.
	CountMembers(ctx context.Context) (int, error)

	// CountActiveMembers counts members flagged active.
	CountActiveMembers(ctx context.Context) (int, error)

	// CountMembersWithLiveSubscription counts active members with a plan whose
	// membership has not yet ended as of the given instant.
	CountMembersWithLiveSubscription(ctx context.Context, asOf time.Time) (int, error)

	// ListActivePlans returns every active plan.
	ListActivePlans(ctx context.Context) ([]domain.Plan, error)

	// CountLiveSubscriptionsByPlan returns, per plan ID, the number of active
	// members with an unexpired membership on that plan as of the instant.
	CountLiveSubscriptionsByPlan(ctx context.Context, asOf time.Time) (map[string]int, error)
}

// Cache provides generic caching with TTL. Used for the plan catalog only —
// financial figures are always recomputed from current store state.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
