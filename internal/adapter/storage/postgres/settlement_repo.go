package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettlementRepo implements ports.SettlementRepository.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

const settlementColumns = `id, group_id, payer_id, recipient_id, amount, currency, status, note, dispute_reason, created_at, confirmed_at`

// Create inserts a new settlement.
func (r *SettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	query := `INSERT INTO settlements (id, group_id, payer_id, recipient_id, amount, currency, status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.GroupID, s.PayerID, s.RecipientID,
		s.Amount.Units, s.Amount.Currency, s.Status, s.Note, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// GetByID fetches a settlement without locking, or nil when absent.
func (r *SettlementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get settlement by id")
}

// GetByIDForUpdate fetches a settlement with a pessimistic row lock, so a
// status transition serializes against concurrent transitions. Must be
// called within a transaction.
func (r *SettlementRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRow(ctx, query, id), "get settlement for update")
}

// MarkConfirmed transitions a settlement to CONFIRMED within a transaction.
func (r *SettlementRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	query := `UPDATE settlements SET status = $1, confirmed_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, domain.SettlementStatusConfirmed, at, id)
	if err != nil {
		return fmt.Errorf("mark settlement confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement not found: %s", id)
	}
	return nil
}

// MarkDisputed transitions a settlement to DISPUTED within a transaction.
func (r *SettlementRepo) MarkDisputed(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	query := `UPDATE settlements SET status = $1, dispute_reason = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, domain.SettlementStatusDisputed, reason, id)
	if err != nil {
		return fmt.Errorf("mark settlement disputed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement not found: %s", id)
	}
	return nil
}

// ListForUser returns settlements where the user is payer or recipient,
// newest first.
func (r *SettlementRepo) ListForUser(ctx context.Context, userID string) ([]domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + `
		FROM settlements WHERE payer_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list settlements for user: %w", err)
	}
	defer rows.Close()

	var settlements []domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		if err := rows.Scan(
			&s.ID, &s.GroupID, &s.PayerID, &s.RecipientID,
			&s.Amount.Units, &s.Amount.Currency, &s.Status,
			&s.Note, &s.DisputeReason, &s.CreatedAt, &s.ConfirmedAt,
		); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return settlements, nil
}

func (r *SettlementRepo) scanOne(row pgx.Row, op string) (*domain.Settlement, error) {
	s := &domain.Settlement{}
	err := row.Scan(
		&s.ID, &s.GroupID, &s.PayerID, &s.RecipientID,
		&s.Amount.Units, &s.Amount.Currency, &s.Status,
		&s.Note, &s.DisputeReason, &s.CreatedAt, &s.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}
