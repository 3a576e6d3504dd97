package ports

import (
	"context"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
)

// SplitService validates transaction splits and applies them to the ledger.
type SplitService interface {
	// ValidateSplit runs the full rule set against a proposed division.
	// Business-rule violations come back inside the result; the error is
	// reserved for invariant violations (empty participants, negative
	// total) and infrastructure failures.
	ValidateSplit(ctx context.Context, total domain.Money, splitType domain.SplitType, participants []domain.Participant) (*domain.ValidationResult, error)

	// ApplySplit validates the transaction's split and, when valid, updates
	// every payer/participant pair balance atomically. An invalid split is
	// reported in the result and leaves the ledger untouched.
	ApplySplit(ctx context.Context, txn domain.Transaction) (*domain.ValidationResult, error)

	// ReverseSplit applies the exact inverse of a previously applied split
	// (transaction deleted, or the first half of a replace-on-update).
	ReverseSplit(ctx context.Context, txn domain.Transaction) error
}

// LedgerService exposes balance queries and debt simplification over an
// immutable snapshot of the edges.
type LedgerService interface {
	// NetBalance is signed: positive means userA owes userB.
	NetBalance(ctx context.Context, userA, userB string) (domain.Money, error)
	BalancesFor(ctx context.Context, userID string) ([]domain.UserBalance, error)
	SimplifyForUser(ctx context.Context, userID string) (*domain.SettlementPlan, error)
	SimplifyForGroup(ctx context.Context, groupID string) (*domain.SettlementPlan, error)
}

// CreateSettlementRequest holds validated input for recording a pending
// settlement.
type CreateSettlementRequest struct {
	PayerID     string
	RecipientID string
	Amount      domain.Money
	GroupID     string
	Note        string
}

// SettlementService manages the settlement lifecycle. Confirm is the only
// operation that mutates the ledger, exactly once per settlement.
type SettlementService interface {
	Create(ctx context.Context, req CreateSettlementRequest) (*domain.Settlement, error)
	// Confirm transitions Pending -> Confirmed and applies the payment to
	// the ledger. Confirming an already-Confirmed settlement is a no-op
	// replay; confirming a Disputed one is an invariant violation.
	Confirm(ctx context.Context, id uuid.UUID) (*domain.Settlement, error)
	// Dispute transitions Pending -> Disputed and never touches the ledger.
	Dispute(ctx context.Context, id uuid.UUID, reason string) (*domain.Settlement, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Settlement, error)
}
