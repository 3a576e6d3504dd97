package service

import (
	"context"
	"fmt"
	"sort"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// SplitServiceImpl implements ports.SplitService.
type SplitServiceImpl struct {
	ledger     ledgerWriter
	transactor ports.DBTransactor
	planCache  ports.PlanCache
	maxUnits   int64 // configured amount ceiling in minor units
	log        zerolog.Logger
}

// NewSplitService creates a new SplitServiceImpl. maxAmountMajor is the
// configured transaction amount ceiling in major units.
func NewSplitService(
	edges ports.BalanceRepository,
	transactor ports.DBTransactor,
	planCache ports.PlanCache,
	maxAmountMajor int64,
	log zerolog.Logger,
) *SplitServiceImpl {
	return &SplitServiceImpl{
		ledger:     ledgerWriter{edges: edges},
		transactor: transactor,
		planCache:  planCache,
		maxUnits:   maxAmountMajor * 100,
		log:        log,
	}
}

// ValidateSplit runs every rule and accumulates all violations, so the
// caller can surface every problem at once. Re-validation after an amount
// change or participant edit is the same call against the new total:
// settled shares get no exemption.
func (s *SplitServiceImpl) ValidateSplit(ctx context.Context, total domain.Money, splitType domain.SplitType, participants []domain.Participant) (*domain.ValidationResult, error) {
	// Preconditions, not business rules: the caller must never hand us
	// an empty split or a negative total.
	if len(participants) == 0 {
		return nil, apperror.ErrEmptyParticipants()
	}
	if total.IsNegative() {
		return nil, apperror.ErrNegativeTotal()
	}
	if !splitType.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown split type %q", splitType))
	}

	res := domain.NewValidationResult()

	if total.Units > s.maxUnits {
		res.Addf("transaction amount (%s) exceeds the maximum allowed amount", total)
	}

	var sumUnits int64
	var pctSum domain.Percent
	for i, p := range participants {
		n := i + 1

		if p.Share.Currency != total.Currency {
			res.Addf("Participant %d: share currency %s does not match transaction currency %s", n, p.Share.Currency, total.Currency)
			continue
		}
		if p.Share.IsNegative() {
			res.Addf("Participant %d: share must be a non-negative number", n)
		}
		if p.Share.Units > total.Units {
			// Per-participant bound, independent of the sum rule: one
			// participant covering the whole amount is legitimate.
			res.Addf("Participant %d: share (%s) cannot exceed transaction amount (%s)", n, p.Share, total)
		}
		if p.Share.Units > s.maxUnits {
			res.Addf("Participant %d: share (%s) exceeds the maximum allowed amount", n, p.Share)
		}
		sumUnits += p.Share.Units

		if splitType == domain.SplitTypePercentage {
			switch {
			case p.Percent == nil:
				res.Addf("Participant %d: percentage is required for percentage splits", n)
			case *p.Percent < 0:
				res.Addf("Participant %d: percentage cannot be negative", n)
			case *p.Percent > domain.PercentHundred:
				res.Addf("Participant %d: percentage cannot exceed 100%%", n)
			default:
				pctSum += *p.Percent
			}
		}
	}

	if splitType == domain.SplitTypePercentage && pctSum > domain.PercentHundred {
		// Equality is not required, to tolerate rounding on the last
		// participant; exceeding 100% never is.
		res.Addf("percentages must sum to 100%% or less")
	}

	if splitType == domain.SplitTypeEqual || splitType == domain.SplitTypeCustom {
		if sumUnits != total.Units {
			res.Addf("shares must sum to transaction amount")
		}
	}

	return res, nil
}

// ApplySplit validates the transaction's split and, when valid, applies one
// ledger share per non-payer participant, all inside one database
// transaction with the pair rows locked in sorted order.
func (s *SplitServiceImpl) ApplySplit(ctx context.Context, txn domain.Transaction) (*domain.ValidationResult, error) {
	split, err := s.checkedSplit(txn)
	if err != nil {
		return nil, err
	}

	res, err := s.ValidateSplit(ctx, txn.Amount, split.Type, split.Participants)
	if err != nil {
		return nil, err
	}
	if !res.IsValid {
		s.log.Debug().
			Str("transaction_id", txn.ID).
			Int("violations", len(res.Errors)).
			Msg("split rejected")
		return res, nil
	}

	if err := s.applyShares(ctx, *split, false); err != nil {
		return nil, err
	}

	s.invalidatePlans(ctx, *split)
	s.log.Info().
		Str("transaction_id", txn.ID).
		Str("paid_by", split.PaidBy).
		Int("participants", len(split.Participants)).
		Msg("split applied to ledger")
	return res, nil
}

// ReverseSplit applies the exact inverse of a previously applied split.
// Integer arithmetic makes the round trip restore every edge bit for bit.
func (s *SplitServiceImpl) ReverseSplit(ctx context.Context, txn domain.Transaction) error {
	split, err := s.checkedSplit(txn)
	if err != nil {
		return err
	}

	if err := s.applyShares(ctx, *split, true); err != nil {
		return err
	}

	s.invalidatePlans(ctx, *split)
	s.log.Info().
		Str("transaction_id", txn.ID).
		Msg("split reversed")
	return nil
}

// checkedSplit enforces the contract the caller owns: a split is present,
// attached to an expense, and structurally sound.
func (s *SplitServiceImpl) checkedSplit(txn domain.Transaction) (*domain.SplitConfig, error) {
	if txn.Split == nil {
		return nil, apperror.Validation("transaction carries no split")
	}
	if txn.Type != domain.TransactionTypeExpense {
		return nil, apperror.ErrSplitOnIncome()
	}
	if len(txn.Split.Participants) == 0 {
		return nil, apperror.ErrEmptyParticipants()
	}
	if err := txn.Split.CheckInvariants(); err != nil {
		return nil, apperror.ErrPayerNotParticipant()
	}
	return txn.Split, nil
}

// applyShares writes one share per non-payer participant inside a single
// database transaction. Participants are processed in sorted user order so
// two concurrent writers lock pair rows in the same sequence.
func (s *SplitServiceImpl) applyShares(ctx context.Context, split domain.SplitConfig, reverse bool) error {
	parts := make([]domain.Participant, len(split.Participants))
	copy(parts, split.Participants)
	sort.Slice(parts, func(i, j int) bool { return parts[i].UserID < parts[j].UserID })

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	for _, p := range parts {
		if p.UserID == split.PaidBy || p.Share.IsZero() {
			continue
		}
		share := p.Share
		if reverse {
			share = share.Negate()
		}
		if err := s.ledger.applyShare(ctx, dbTx, p.UserID, split.PaidBy, split.GroupID, share); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrConcurrencyConflict(err)
	}
	return nil
}

// invalidatePlans drops cached settlement plans for every scope this split
// touched. Best-effort: a stale plan is legal, just bounded.
func (s *SplitServiceImpl) invalidatePlans(ctx context.Context, split domain.SplitConfig) {
	if s.planCache == nil {
		return
	}
	scopes := make([]string, 0, len(split.Participants)+2)
	for _, p := range split.Participants {
		scopes = append(scopes, "user:"+p.UserID)
	}
	scopes = append(scopes, "user:"+split.PaidBy)
	if split.GroupID != "" {
		scopes = append(scopes, "group:"+split.GroupID)
	}
	if err := s.planCache.Invalidate(ctx, scopes...); err != nil {
		s.log.Warn().Err(err).Msg("plan cache invalidation failed")
	}
}
