package postgres

import (
	"context"
	"errors"
	"fmt"

	"splitledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BalanceRepo implements ports.BalanceRepository over the balance_edges
// table. One row per normalized user pair and group scope; a positive
// amount means user_low owes user_high. The zero-edge pruning rule lives
// in the service layer: this repo only reads and writes what it is told.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

const balanceColumns = `user_low, user_high, group_id, amount, currency, updated_at`

// GetForUpdate fetches an edge with a pessimistic row lock, or nil when
// the pair has no edge yet. Must be called within a transaction.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userLow, userHigh, groupID string) (*domain.BalanceEdge, error) {
	query := `SELECT ` + balanceColumns + `
		FROM balance_edges WHERE user_low = $1 AND user_high = $2 AND group_id = $3 FOR UPDATE`

	e := &domain.BalanceEdge{}
	err := tx.QueryRow(ctx, query, userLow, userHigh, groupID).Scan(
		&e.UserLow, &e.UserHigh, &e.GroupID, &e.Amount.Units, &e.Amount.Currency, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance edge for update: %w", err)
	}
	return e, nil
}

// Upsert writes an edge within a transaction.
func (r *BalanceRepo) Upsert(ctx context.Context, tx pgx.Tx, edge *domain.BalanceEdge) error {
	query := `INSERT INTO balance_edges (user_low, user_high, group_id, amount, currency, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_low, user_high, group_id)
		DO UPDATE SET amount = EXCLUDED.amount, currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at`

	_, err := tx.Exec(ctx, query,
		edge.UserLow, edge.UserHigh, edge.GroupID,
		edge.Amount.Units, edge.Amount.Currency, edge.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert balance edge: %w", err)
	}
	return nil
}

// Delete removes an edge. Deleting a missing edge is not an error.
func (r *BalanceRepo) Delete(ctx context.Context, tx pgx.Tx, userLow, userHigh, groupID string) error {
	query := `DELETE FROM balance_edges WHERE user_low = $1 AND user_high = $2 AND group_id = $3`

	if _, err := tx.Exec(ctx, query, userLow, userHigh, groupID); err != nil {
		return fmt.Errorf("delete balance edge: %w", err)
	}
	return nil
}

// ListForPair returns every edge for a normalized pair across group scopes.
func (r *BalanceRepo) ListForPair(ctx context.Context, userLow, userHigh string) ([]domain.BalanceEdge, error) {
	query := `SELECT ` + balanceColumns + `
		FROM balance_edges WHERE user_low = $1 AND user_high = $2
		ORDER BY group_id`

	rows, err := r.pool.Query(ctx, query, userLow, userHigh)
	if err != nil {
		return nil, fmt.Errorf("list balance edges for pair: %w", err)
	}
	return scanEdges(rows)
}

// ListForUser returns every edge touching the user, across group scopes.
func (r *BalanceRepo) ListForUser(ctx context.Context, userID string) ([]domain.BalanceEdge, error) {
	query := `SELECT ` + balanceColumns + `
		FROM balance_edges WHERE user_low = $1 OR user_high = $1
		ORDER BY user_low, user_high, group_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list balance edges for user: %w", err)
	}
	return scanEdges(rows)
}

// ListForGroup returns every edge within a group scope.
func (r *BalanceRepo) ListForGroup(ctx context.Context, groupID string) ([]domain.BalanceEdge, error) {
	query := `SELECT ` + balanceColumns + `
		FROM balance_edges WHERE group_id = $1
		ORDER BY user_low, user_high`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list balance edges for group: %w", err)
	}
	return scanEdges(rows)
}

func scanEdges(rows pgx.Rows) ([]domain.BalanceEdge, error) {
	defer rows.Close()

	var edges []domain.BalanceEdge
	for rows.Next() {
		var e domain.BalanceEdge
		if err := rows.Scan(&e.UserLow, &e.UserHigh, &e.GroupID, &e.Amount.Units, &e.Amount.Currency, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance edges: %w", err)
	}
	return edges, nil
}
