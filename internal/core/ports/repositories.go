package ports

import (
	"context"
	"time"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BalanceRepository defines persistence for balance edges, one row per
// unordered user pair and group scope. Methods accepting pgx.Tx run inside
// transaction blocks for pessimistic pair locking: every read-modify-write
// of an edge must go through GetForUpdate.
type BalanceRepository interface {
	// GetForUpdate fetches the pair's edge with a row lock, or nil if no
	// edge exists yet. userLow/userHigh must already be normalized.
	GetForUpdate(ctx context.Context, tx pgx.Tx, userLow, userHigh, groupID string) (*domain.BalanceEdge, error)
	// Upsert writes an edge within a transaction.
	Upsert(ctx context.Context, tx pgx.Tx, edge *domain.BalanceEdge) error
	// Delete removes an edge; used to prune zero balances on write.
	Delete(ctx context.Context, tx pgx.Tx, userLow, userHigh, groupID string) error

	// Snapshot reads (non-locking).
	ListForPair(ctx context.Context, userLow, userHigh string) ([]domain.BalanceEdge, error)
	ListForUser(ctx context.Context, userID string) ([]domain.BalanceEdge, error)
	ListForGroup(ctx context.Context, groupID string) ([]domain.BalanceEdge, error)
}

// SettlementRepository defines persistence for settlements.
type SettlementRepository interface {
	Create(ctx context.Context, s *domain.Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error)
	// GetByIDForUpdate locks the settlement row for a status transition.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Settlement, error)
	MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	MarkDisputed(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error
	ListForUser(ctx context.Context, userID string) ([]domain.Settlement, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ConfirmCache is the fast-path idempotency layer for settlement
// confirmation: a confirmed settlement's response is cached so retried
// confirm calls replay it without touching the ledger.
type ConfirmCache interface {
	// Get returns the cached response JSON, or nil if absent.
	Get(ctx context.Context, settlementID string) ([]byte, error)
	Set(ctx context.Context, settlementID string, response []byte, ttl time.Duration) error
}

// PlanCache stores computed settlement plans per scope ("user:<id>" or
// "group:<id>"). Plans are snapshots and may be stale; ledger writers
// invalidate the scopes they touch to bound the staleness.
type PlanCache interface {
	Get(ctx context.Context, scope string) ([]byte, error)
	Set(ctx context.Context, scope string, plan []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, scopes ...string) error
}
