package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Balance Repo ---

func edgeKey(userLow, userHigh, groupID string) string {
	return userLow + "\x00" + userHigh + "\x00" + groupID
}

type inMemoryBalanceRepo struct {
	mu    sync.RWMutex
	edges map[string]domain.BalanceEdge
}

func newInMemoryBalanceRepo() *inMemoryBalanceRepo {
	return &inMemoryBalanceRepo{edges: make(map[string]domain.BalanceEdge)}
}

func (r *inMemoryBalanceRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userLow, userHigh, groupID string) (*domain.BalanceEdge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.edges[edgeKey(userLow, userHigh, groupID)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *inMemoryBalanceRepo) Upsert(ctx context.Context, tx pgx.Tx, edge *domain.BalanceEdge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[edgeKey(edge.UserLow, edge.UserHigh, edge.GroupID)] = *edge
	return nil
}

func (r *inMemoryBalanceRepo) Delete(ctx context.Context, tx pgx.Tx, userLow, userHigh, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.edges, edgeKey(userLow, userHigh, groupID))
	return nil
}

func (r *inMemoryBalanceRepo) ListForPair(ctx context.Context, userLow, userHigh string) ([]domain.BalanceEdge, error) {
	return r.list(func(e domain.BalanceEdge) bool {
		return e.UserLow == userLow && e.UserHigh == userHigh
	}), nil
}

func (r *inMemoryBalanceRepo) ListForUser(ctx context.Context, userID string) ([]domain.BalanceEdge, error) {
	return r.list(func(e domain.BalanceEdge) bool {
		return e.UserLow == userID || e.UserHigh == userID
	}), nil
}

func (r *inMemoryBalanceRepo) ListForGroup(ctx context.Context, groupID string) ([]domain.BalanceEdge, error) {
	return r.list(func(e domain.BalanceEdge) bool {
		return e.GroupID == groupID
	}), nil
}

func (r *inMemoryBalanceRepo) list(match func(domain.BalanceEdge) bool) []domain.BalanceEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.BalanceEdge
	for _, e := range r.edges {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserLow != out[j].UserLow {
			return out[i].UserLow < out[j].UserLow
		}
		if out[i].UserHigh != out[j].UserHigh {
			return out[i].UserHigh < out[j].UserHigh
		}
		return out[i].GroupID < out[j].GroupID
	})
	return out
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu          sync.RWMutex
	settlements map[uuid.UUID]domain.Settlement
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{settlements: make(map[uuid.UUID]domain.Settlement)}
}

func (r *inMemorySettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.settlements[s.ID]; exists {
		return fmt.Errorf("settlement already exists: %s", s.ID)
	}
	r.settlements[s.ID] = *s
	return nil
}

func (r *inMemorySettlementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settlements[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *inMemorySettlementRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Settlement, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemorySettlementRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[id]
	if !ok {
		return fmt.Errorf("settlement not found: %s", id)
	}
	s.Status = domain.SettlementStatusConfirmed
	s.ConfirmedAt = &at
	r.settlements[id] = s
	return nil
}

func (r *inMemorySettlementRepo) MarkDisputed(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[id]
	if !ok {
		return fmt.Errorf("settlement not found: %s", id)
	}
	s.Status = domain.SettlementStatusDisputed
	s.DisputeReason = &reason
	r.settlements[id] = s
	return nil
}

func (r *inMemorySettlementRepo) ListForUser(ctx context.Context, userID string) ([]domain.Settlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Settlement
	for _, s := range r.settlements {
		if s.PayerID == userID || s.RecipientID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex: Begin
// blocks until the previous transaction commits or rolls back. This gives
// the in-memory repos the same isolation the row-locked SQL path has, so
// concurrency tests exercise real contention.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockedTx{release: &t.mu}, nil
}

// lockedTx holds the transactor mutex until Commit or Rollback. The done
// flag makes the deferred Rollback after a successful Commit a no-op.
type lockedTx struct {
	release *sync.Mutex
	done    bool
}

func (t *lockedTx) Commit(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.release.Unlock()
	}
	return nil
}

func (t *lockedTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.release.Unlock()
	}
	return nil
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockedTx) Conn() *pgx.Conn { return nil }
