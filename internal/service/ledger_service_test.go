package service

import (
	"context"
	"testing"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture() (*LedgerServiceImpl, *memBalanceRepo, *memPlanCache) {
	edges := newMemBalanceRepo()
	plans := newMemPlanCache()
	svc := NewLedgerService(edges, plans, 5*time.Minute, "INR", zerolog.Nop())
	return svc, edges, plans
}

func seedEdge(t *testing.T, repo *memBalanceRepo, low, high, groupID string, units int64) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), nil, &domain.BalanceEdge{
		UserLow:   low,
		UserHigh:  high,
		GroupID:   groupID,
		Amount:    domain.Money{Units: units, Currency: "INR"},
		UpdatedAt: time.Now().UTC(),
	}))
}

func TestNetBalance(t *testing.T) {
	svc, edges, _ := newLedgerFixture()
	ctx := context.Background()

	t.Run("no edge means zero", func(t *testing.T) {
		net, err := svc.NetBalance(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.True(t, net.IsZero())
		assert.Equal(t, "INR", net.Currency)
	})

	t.Run("aggregates group scopes and respects direction", func(t *testing.T) {
		seedEdge(t, edges, "alice", "bob", "", 3000)
		seedEdge(t, edges, "alice", "bob", "trip-goa", -1000)

		net, err := svc.NetBalance(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(2000), net.Units, "alice owes bob 20.00 overall")

		flipped, err := svc.NetBalance(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(-2000), flipped.Units)
	})

	t.Run("self pair rejected", func(t *testing.T) {
		_, err := svc.NetBalance(ctx, "alice", "alice")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INV_003", appErr.Code)
	})
}

func TestBalancesFor(t *testing.T) {
	svc, edges, _ := newLedgerFixture()
	ctx := context.Background()

	seedEdge(t, edges, "alice", "bob", "", 3000)
	seedEdge(t, edges, "alice", "bob", "trip-goa", -3000) // cancels out
	seedEdge(t, edges, "alice", "carol", "", -1500)
	seedEdge(t, edges, "bob", "carol", "", 500)

	balances, err := svc.BalancesFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, balances, 1, "fully settled counterparties are omitted")
	assert.Equal(t, "carol", balances[0].OtherUser)
	assert.Equal(t, int64(-1500), balances[0].Amount.Units, "carol owes alice 15.00")

	balances, err = svc.BalancesFor(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "alice", balances[0].OtherUser)
	assert.Equal(t, int64(1500), balances[0].Amount.Units)
	assert.Equal(t, "bob", balances[1].OtherUser)
	assert.Equal(t, int64(-500), balances[1].Amount.Units)
}

func TestSimplifyForUser(t *testing.T) {
	svc, edges, plans := newLedgerFixture()
	ctx := context.Background()

	// alice owes bob 100, bob owes carol 100: one transfer alice -> carol.
	seedEdge(t, edges, "alice", "bob", "", 10000)
	seedEdge(t, edges, "bob", "carol", "", 10000)

	plan, err := svc.SimplifyForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, plan.Payments, 1)
	assert.Equal(t, "alice", plan.Payments[0].From)
	assert.Equal(t, "carol", plan.Payments[0].To)
	assert.Equal(t, int64(10000), plan.Payments[0].Amount.Units)
	assert.Equal(t, 2, plan.OriginalTransactionCount)
	assert.Equal(t, 1, plan.SimplifiedTransactionCount)
	assert.Equal(t, 1, plan.TransactionsSaved)

	t.Run("second call is served from the cache", func(t *testing.T) {
		assert.NotEmpty(t, plans.entries["user:bob"])

		// Change the underlying edges without invalidating; the stale
		// cached plan must come back unchanged.
		seedEdge(t, edges, "bob", "dave", "", 500)
		cached, err := svc.SimplifyForUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, plan, cached)
	})

	t.Run("invalidation forces a recompute", func(t *testing.T) {
		require.NoError(t, plans.Invalidate(ctx, "user:bob"))
		fresh, err := svc.SimplifyForUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, 3, fresh.OriginalTransactionCount)
	})
}

func TestSimplifyForGroup(t *testing.T) {
	svc, edges, _ := newLedgerFixture()
	ctx := context.Background()

	seedEdge(t, edges, "alice", "bob", "trip-goa", 4000)
	seedEdge(t, edges, "alice", "carol", "trip-goa", 4000)
	seedEdge(t, edges, "alice", "bob", "", 99999) // outside the group scope

	plan, err := svc.SimplifyForGroup(ctx, "trip-goa")
	require.NoError(t, err)
	assert.Equal(t, 2, plan.OriginalTransactionCount)
	for _, p := range plan.Payments {
		assert.Equal(t, "alice", p.From, "only alice owes within the group")
	}
}

func TestSimplify_EmptyLedger(t *testing.T) {
	svc, _, _ := newLedgerFixture()

	plan, err := svc.SimplifyForUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, plan.Payments)
	assert.Zero(t, plan.OriginalTransactionCount)
	assert.Zero(t, plan.SavingsPercentage)
}
