package service

import (
	"context"
	"encoding/json"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// confirmCacheTTL bounds how long a confirmed settlement's response is
// replayed from cache. The database row remains the source of truth after
// expiry.
const confirmCacheTTL = 24 * time.Hour

// SettlementServiceImpl implements ports.SettlementService. Confirm and
// Dispute take a row lock on the settlement so concurrent transitions of
// the same settlement serialize, and Confirm reuses the balance write path
// so the ledger update shares the pair lock discipline with splits.
type SettlementServiceImpl struct {
	settlements ports.SettlementRepository
	ledger      ledgerWriter
	transactor  ports.DBTransactor
	confirms    ports.ConfirmCache
	plans       ports.PlanCache
	log         zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	settlements ports.SettlementRepository,
	edges ports.BalanceRepository,
	transactor ports.DBTransactor,
	confirms ports.ConfirmCache,
	plans ports.PlanCache,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		settlements: settlements,
		ledger:      ledgerWriter{edges: edges},
		transactor:  transactor,
		confirms:    confirms,
		plans:       plans,
		log:         log,
	}
}

// Create records a pending settlement. Nothing touches the ledger until
// the settlement is confirmed.
func (s *SettlementServiceImpl) Create(ctx context.Context, req ports.CreateSettlementRequest) (*domain.Settlement, error) {
	if req.PayerID == req.RecipientID {
		return nil, apperror.ErrSelfSettlement()
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("settlement amount must be positive")
	}

	settlement := &domain.Settlement{
		ID:          uuid.New(),
		GroupID:     req.GroupID,
		PayerID:     req.PayerID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Status:      domain.SettlementStatusPending,
		Note:        req.Note,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.log.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("payer", settlement.PayerID).
		Str("recipient", settlement.RecipientID).
		Str("amount", settlement.Amount.String()).
		Msg("settlement recorded")
	return settlement, nil
}

// Confirm transitions a settlement to Confirmed and applies the payment
// to the balance ledger in the same transaction. Repeated confirms of an
// already-Confirmed settlement return it unchanged without a second
// ledger write.
func (s *SettlementServiceImpl) Confirm(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	if s.confirms != nil {
		cached, err := s.confirms.Get(ctx, id.String())
		if err != nil {
			s.log.Warn().Err(err).Str("settlement_id", id.String()).Msg("confirm cache read failed")
		} else if cached != nil {
			settlement := &domain.Settlement{}
			if err := json.Unmarshal(cached, settlement); err == nil {
				return settlement, nil
			}
			s.log.Warn().Str("settlement_id", id.String()).Msg("discarding undecodable cached confirmation")
		}
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	settlement, err := s.settlements.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settlement == nil {
		return nil, apperror.ErrNotFound("settlement")
	}

	switch settlement.Status {
	case domain.SettlementStatusConfirmed:
		return settlement, nil
	case domain.SettlementStatusDisputed:
		return nil, apperror.ErrSettlementNotPending(string(settlement.Status))
	}

	// A confirmed payment reduces what the payer owes the recipient, so
	// the ledger delta is the negated settlement amount.
	if err := s.ledger.applyShare(ctx, tx, settlement.PayerID, settlement.RecipientID, settlement.GroupID, settlement.Amount.Negate()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.settlements.MarkConfirmed(ctx, tx, id, now); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrConcurrencyConflict(err)
	}

	settlement.Status = domain.SettlementStatusConfirmed
	settlement.ConfirmedAt = &now

	if s.confirms != nil {
		if encoded, err := json.Marshal(settlement); err == nil {
			if err := s.confirms.Set(ctx, id.String(), encoded, confirmCacheTTL); err != nil {
				s.log.Warn().Err(err).Str("settlement_id", id.String()).Msg("confirm cache write failed")
			}
		}
	}
	s.invalidatePlans(ctx, settlement)

	s.log.Info().
		Str("settlement_id", id.String()).
		Str("amount", settlement.Amount.String()).
		Msg("settlement confirmed")
	return settlement, nil
}

// Dispute transitions a settlement to Disputed. The ledger is never
// touched; disputing an already-Disputed settlement is a no-op replay.
func (s *SettlementServiceImpl) Dispute(ctx context.Context, id uuid.UUID, reason string) (*domain.Settlement, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	settlement, err := s.settlements.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settlement == nil {
		return nil, apperror.ErrNotFound("settlement")
	}

	switch settlement.Status {
	case domain.SettlementStatusDisputed:
		return settlement, nil
	case domain.SettlementStatusConfirmed:
		return nil, apperror.ErrSettlementNotPending(string(settlement.Status))
	}

	if err := s.settlements.MarkDisputed(ctx, tx, id, reason); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrConcurrencyConflict(err)
	}

	settlement.Status = domain.SettlementStatusDisputed
	settlement.DisputeReason = &reason

	s.log.Info().
		Str("settlement_id", id.String()).
		Str("reason", reason).
		Msg("settlement disputed")
	return settlement, nil
}

// ListForUser lists settlements where the user is payer or recipient.
func (s *SettlementServiceImpl) ListForUser(ctx context.Context, userID string) ([]domain.Settlement, error) {
	settlements, err := s.settlements.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return settlements, nil
}

func (s *SettlementServiceImpl) invalidatePlans(ctx context.Context, settlement *domain.Settlement) {
	if s.plans == nil {
		return
	}
	scopes := []string{"user:" + settlement.PayerID, "user:" + settlement.RecipientID}
	if settlement.GroupID != "" {
		scopes = append(scopes, "group:"+settlement.GroupID)
	}
	if err := s.plans.Invalidate(ctx, scopes...); err != nil {
		s.log.Warn().Err(err).Strs("scopes", scopes).Msg("plan cache invalidation failed")
	}
}
