package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentConfirms fires many concurrent confirms of the same
// settlement. Row locking plus the idempotent replay path must apply the
// payment to the ledger exactly once, whichever request wins the race.
func TestConcurrentConfirms(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Seed: bob owes alice 100.00.
	seed := `{
		"amount": "100.00", "currency": "INR", "transaction_type": "EXPENSE",
		"split_type": "CUSTOM", "paid_by": "alice",
		"participants": [
			{"user_id": "alice", "share": "0.00"},
			{"user_id": "bob", "share": "100.00"}
		]
	}`
	status := app.postJSON(t, "/api/v1/transactions/seed-1/split", seed, nil)
	require.Equal(t, http.StatusCreated, status)

	create := `{"payer_id": "bob", "recipient_id": "alice", "amount": "30.00", "currency": "INR"}`
	var created settlementEnvelope
	status = app.postJSON(t, "/api/v1/settlements", create, &created)
	require.Equal(t, http.StatusCreated, status)

	confirmURL := app.server.URL + "/api/v1/settlements/" + created.Data.ID + "/confirm"

	// Stays under the settlements rate limit bucket.
	concurrency := 25
	var wg sync.WaitGroup
	var confirmedCount atomic.Int64
	var otherCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(confirmURL, "application/json", nil)
			if err != nil {
				otherCount.Add(1)
				return
			}
			defer resp.Body.Close()

			var env settlementEnvelope
			if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&env) == nil && env.Data.Status == "CONFIRMED" {
				confirmedCount.Add(1)
				return
			}
			otherCount.Add(1)
		}()
	}
	wg.Wait()

	// Every request observes the confirmed settlement.
	assert.Equal(t, int64(concurrency), confirmedCount.Load())
	assert.Equal(t, int64(0), otherCount.Load())

	// The payment landed once: 100.00 - 30.00, not 100.00 - n*30.00.
	var pair pairBalanceEnvelope
	status = app.getJSON(t, "/api/v1/balances/bob/alice", &pair)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "70.00", pair.Data.Amount)
}

// TestConcurrentSplitsSamePair applies many concurrent splits that all hit
// the same pair row. The per-pair lock serializes the read-modify-write so
// no increment is lost.
func TestConcurrentSplitsSamePair(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	concurrency := 50
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := `{
				"amount": "1.00", "currency": "INR", "transaction_type": "EXPENSE",
				"split_type": "CUSTOM", "paid_by": "alice",
				"participants": [
					{"user_id": "alice", "share": "0.00"},
					{"user_id": "bob", "share": "1.00"}
				]
			}`
			url := fmt.Sprintf("%s/api/v1/transactions/coffee-%d/split", app.server.URL, idx)
			resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), successCount.Load())

	var pair pairBalanceEnvelope
	status := app.getJSON(t, "/api/v1/balances/bob/alice", &pair)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "50.00", pair.Data.Amount)
}

// TestConcurrentSplitsDistinctPairs runs writers on disjoint pairs and
// checks every edge lands with its own amount intact.
func TestConcurrentSplitsDistinctPairs(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	concurrency := 20
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			debtor := fmt.Sprintf("user-%02d", idx)
			amount := fmt.Sprintf("%d.00", idx+1)
			body := fmt.Sprintf(`{
				"amount": %q, "currency": "INR", "transaction_type": "EXPENSE",
				"split_type": "CUSTOM", "paid_by": "payer",
				"participants": [
					{"user_id": "payer", "share": "0.00"},
					{"user_id": %q, "share": %q}
				]
			}`, amount, debtor, amount)
			url := fmt.Sprintf("%s/api/v1/transactions/solo-%d/split", app.server.URL, idx)
			resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), successCount.Load())

	for i := 0; i < concurrency; i++ {
		debtor := fmt.Sprintf("user-%02d", i)
		var pair pairBalanceEnvelope
		status := app.getJSON(t, "/api/v1/balances/"+debtor+"/payer", &pair)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, fmt.Sprintf("%d.00", i+1), pair.Data.Amount)
	}
}
