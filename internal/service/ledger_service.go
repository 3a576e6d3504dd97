package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/internal/engine"
	"splitledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService: balance queries and
// debt simplification over a snapshot of the edges. Reads never lock; a
// snapshot may be stale relative to concurrent writes, and callers that
// need strong consistency simply re-fetch and recompute.
type LedgerServiceImpl struct {
	edges    ports.BalanceRepository
	plans    ports.PlanCache
	planTTL  time.Duration
	currency string
	log      zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. currency is the
// ledger's fixed currency, used for zero balances when no edge exists.
func NewLedgerService(
	edges ports.BalanceRepository,
	plans ports.PlanCache,
	planTTL time.Duration,
	currency string,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		edges:    edges,
		plans:    plans,
		planTTL:  planTTL,
		currency: currency,
		log:      log,
	}
}

// NetBalance returns the signed pair balance aggregated across group
// scopes: positive means userA owes userB.
func (s *LedgerServiceImpl) NetBalance(ctx context.Context, userA, userB string) (domain.Money, error) {
	low, high, err := domain.NormalizePair(userA, userB)
	if err != nil {
		return domain.Money{}, apperror.ErrSelfSettlement()
	}

	edges, err := s.edges.ListForPair(ctx, low, high)
	if err != nil {
		return domain.Money{}, apperror.ErrDatabaseError(err)
	}

	net := domain.Zero(s.currency)
	for _, e := range edges {
		net, err = net.Add(e.BalanceFrom(userA))
		if err != nil {
			return domain.Money{}, apperror.InternalError(err)
		}
	}
	return net, nil
}

// BalancesFor lists a user's net balance per counterparty, aggregated
// across group scopes and sorted by counterparty id.
func (s *LedgerServiceImpl) BalancesFor(ctx context.Context, userID string) ([]domain.UserBalance, error) {
	edges, err := s.edges.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	byOther := make(map[string]int64)
	for _, e := range edges {
		byOther[e.Other(userID)] += e.BalanceFrom(userID).Units
	}

	balances := make([]domain.UserBalance, 0, len(byOther))
	for other, units := range byOther {
		if units == 0 {
			continue
		}
		balances = append(balances, domain.UserBalance{
			OtherUser: other,
			Amount:    domain.Money{Units: units, Currency: s.currency},
		})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].OtherUser < balances[j].OtherUser })
	return balances, nil
}

// SimplifyForUser computes a reduced settlement plan over every edge
// touching the user.
func (s *LedgerServiceImpl) SimplifyForUser(ctx context.Context, userID string) (*domain.SettlementPlan, error) {
	return s.simplify(ctx, "user:"+userID, func() ([]domain.BalanceEdge, error) {
		return s.edges.ListForUser(ctx, userID)
	})
}

// SimplifyForGroup computes a reduced settlement plan for a group scope.
func (s *LedgerServiceImpl) SimplifyForGroup(ctx context.Context, groupID string) (*domain.SettlementPlan, error) {
	return s.simplify(ctx, "group:"+groupID, func() ([]domain.BalanceEdge, error) {
		return s.edges.ListForGroup(ctx, groupID)
	})
}

func (s *LedgerServiceImpl) simplify(ctx context.Context, scope string, fetch func() ([]domain.BalanceEdge, error)) (*domain.SettlementPlan, error) {
	if s.plans != nil {
		if cached, err := s.plans.Get(ctx, scope); err != nil {
			s.log.Warn().Err(err).Str("scope", scope).Msg("plan cache read failed, recomputing")
		} else if cached != nil {
			plan := &domain.SettlementPlan{}
			if err := json.Unmarshal(cached, plan); err == nil {
				return plan, nil
			}
			s.log.Warn().Str("scope", scope).Msg("discarding undecodable cached plan")
		}
	}

	edges, err := fetch()
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	graph, err := engine.BuildGraph(edges)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	plan := engine.Simplify(graph)

	if s.plans != nil {
		if encoded, err := json.Marshal(plan); err == nil {
			if err := s.plans.Set(ctx, scope, encoded, s.planTTL); err != nil {
				s.log.Warn().Err(err).Str("scope", scope).Msg("plan cache write failed")
			}
		}
	}

	s.log.Debug().
		Str("scope", scope).
		Int("original", plan.OriginalTransactionCount).
		Int("simplified", plan.SimplifiedTransactionCount).
		Msg("debts simplified")
	return plan, nil
}
