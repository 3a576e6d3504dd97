package service

import (
	"context"
	"sync"
	"time"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// fakeTx satisfies pgx.Tx for service tests. Only Commit and Rollback are
// called by the services; everything else panics via the embedded nil.
type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeTransactor struct {
	commitErr error
	begun     int
}

func (f *fakeTransactor) Begin(context.Context) (pgx.Tx, error) {
	f.begun++
	return &fakeTx{commitErr: f.commitErr}, nil
}

// memBalanceRepo is an in-memory BalanceRepository keyed by normalized
// pair and group scope.
type memBalanceRepo struct {
	mu    sync.Mutex
	edges map[string]domain.BalanceEdge
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{edges: make(map[string]domain.BalanceEdge)}
}

func edgeKey(low, high, groupID string) string {
	return low + "\x00" + high + "\x00" + groupID
}

func (r *memBalanceRepo) GetForUpdate(_ context.Context, _ pgx.Tx, low, high, groupID string) (*domain.BalanceEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.edges[edgeKey(low, high, groupID)]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *memBalanceRepo) Upsert(_ context.Context, _ pgx.Tx, edge *domain.BalanceEdge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[edgeKey(edge.UserLow, edge.UserHigh, edge.GroupID)] = *edge
	return nil
}

func (r *memBalanceRepo) Delete(_ context.Context, _ pgx.Tx, low, high, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.edges, edgeKey(low, high, groupID))
	return nil
}

func (r *memBalanceRepo) ListForPair(_ context.Context, low, high string) ([]domain.BalanceEdge, error) {
	return r.list(func(e domain.BalanceEdge) bool {
		return e.UserLow == low && e.UserHigh == high
	})
}

func (r *memBalanceRepo) ListForUser(_ context.Context, userID string) ([]domain.BalanceEdge, error) {
	return r.list(func(e domain.BalanceEdge) bool {
		return e.UserLow == userID || e.UserHigh == userID
	})
}

func (r *memBalanceRepo) ListForGroup(_ context.Context, groupID string) ([]domain.BalanceEdge, error) {
	return r.list(func(e domain.BalanceEdge) bool {
		return e.GroupID == groupID
	})
}

func (r *memBalanceRepo) list(keep func(domain.BalanceEdge) bool) ([]domain.BalanceEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.BalanceEdge
	for _, e := range r.edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// memSettlementRepo is an in-memory SettlementRepository.
type memSettlementRepo struct {
	mu          sync.Mutex
	settlements map[uuid.UUID]domain.Settlement
}

func newMemSettlementRepo() *memSettlementRepo {
	return &memSettlementRepo{settlements: make(map[uuid.UUID]domain.Settlement)}
}

func (r *memSettlementRepo) Create(_ context.Context, s *domain.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements[s.ID] = *s
	return nil
}

func (r *memSettlementRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settlements[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *memSettlementRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Settlement, error) {
	return r.GetByID(ctx, id)
}

func (r *memSettlementRepo) MarkConfirmed(_ context.Context, _ pgx.Tx, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.settlements[id]
	s.Status = domain.SettlementStatusConfirmed
	s.ConfirmedAt = &at
	r.settlements[id] = s
	return nil
}

func (r *memSettlementRepo) MarkDisputed(_ context.Context, _ pgx.Tx, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.settlements[id]
	s.Status = domain.SettlementStatusDisputed
	s.DisputeReason = &reason
	r.settlements[id] = s
	return nil
}

func (r *memSettlementRepo) ListForUser(_ context.Context, userID string) ([]domain.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Settlement
	for _, s := range r.settlements {
		if s.PayerID == userID || s.RecipientID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// memPlanCache records Set and Invalidate calls so tests can assert on
// cache traffic.
type memPlanCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated []string
}

func newMemPlanCache() *memPlanCache {
	return &memPlanCache{entries: make(map[string][]byte)}
}

func (c *memPlanCache) Get(_ context.Context, scope string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[scope], nil
}

func (c *memPlanCache) Set(_ context.Context, scope string, plan []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[scope] = plan
	return nil
}

func (c *memPlanCache) Invalidate(_ context.Context, scopes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, scope := range scopes {
		delete(c.entries, scope)
		c.invalidated = append(c.invalidated, scope)
	}
	return nil
}

// memConfirmCache is an in-memory ConfirmCache.
type memConfirmCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemConfirmCache() *memConfirmCache {
	return &memConfirmCache{entries: make(map[string][]byte)}
}

func (c *memConfirmCache) Get(_ context.Context, settlementID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[settlementID], nil
}

func (c *memConfirmCache) Set(_ context.Context, settlementID string, response []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[settlementID] = response
	c.sets++
	return nil
}

func mustMoney(t interface{ Fatalf(string, ...any) }, s, currency string) domain.Money {
	m, err := domain.ParseMoney(s, currency)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}
