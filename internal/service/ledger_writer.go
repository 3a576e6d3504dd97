package service

import (
	"context"
	"errors"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// ledgerWriter is the single write path for balance edges. Both the split
// and settlement services go through it, so the per-pair locking discipline
// lives in exactly one place: read the pair row FOR UPDATE, adjust, write
// back (or delete when the balance reaches zero).
type ledgerWriter struct {
	edges ports.BalanceRepository
}

// applyShare adds "debtor owes creditor amount" to the pair's edge inside
// the given database transaction. A negative amount reverses a prior share
// or records a settlement payment.
func (w ledgerWriter) applyShare(ctx context.Context, tx pgx.Tx, debtor, creditor, groupID string, amount domain.Money) error {
	low, high, err := domain.NormalizePair(debtor, creditor)
	if err != nil {
		return apperror.ErrSelfSettlement()
	}

	// Stored sign convention: positive = low owes high.
	delta := amount
	if debtor != low {
		delta = amount.Negate()
	}

	edge, err := w.edges.GetForUpdate(ctx, tx, low, high, groupID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}

	current := domain.Zero(amount.Currency)
	if edge != nil {
		current = edge.Amount
	}

	updated, err := current.Add(delta)
	switch {
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return apperror.ErrCurrencyMismatch()
	case errors.Is(err, domain.ErrAmountOutOfRange):
		return apperror.ErrAmountOutOfRange()
	case err != nil:
		return apperror.InternalError(err)
	}

	// Zero edges are pruned, never persisted.
	if updated.IsZero() {
		if edge == nil {
			return nil
		}
		if err := w.edges.Delete(ctx, tx, low, high, groupID); err != nil {
			return apperror.ErrDatabaseError(err)
		}
		return nil
	}

	if err := w.edges.Upsert(ctx, tx, &domain.BalanceEdge{
		UserLow:   low,
		UserHigh:  high,
		GroupID:   groupID,
		Amount:    updated,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	return nil
}
