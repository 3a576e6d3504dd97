// Package engine holds the pure debt computation core: building a directed
// debt graph from ledger edges and reducing it to a settlement plan. Nothing
// here touches storage or mutates input; callers hand in an immutable
// snapshot of edges and may run these functions in parallel freely.
package engine

import (
	"fmt"
	"sort"

	"splitledger/internal/core/domain"
)

// DebtEdge is one directed debt: From owes To exactly Amount, always > 0.
type DebtEdge struct {
	From   string
	To     string
	Amount domain.Money
}

// DebtGraph is a directed weighted debt graph over user ids.
type DebtGraph struct {
	Currency string
	Edges    []DebtEdge
}

// BuildGraph converts signed pairwise balances into a directed graph.
// Duplicate rows for the same pair (transiently possible across group
// scopes) are merged into one signed value first; pairs that net to zero
// are discarded. The input is not modified.
func BuildGraph(edges []domain.BalanceEdge) (*DebtGraph, error) {
	type pair struct{ low, high string }

	currency := ""
	merged := make(map[pair]int64)
	for _, e := range edges {
		if e.UserLow == e.UserHigh {
			return nil, domain.ErrSelfPair
		}
		if currency == "" {
			currency = e.Amount.Currency
		} else if e.Amount.Currency != currency {
			return nil, fmt.Errorf("mixed currencies in snapshot: %s vs %s", currency, e.Amount.Currency)
		}
		merged[pair{e.UserLow, e.UserHigh}] += e.Amount.Units
	}

	g := &DebtGraph{Currency: currency}
	for p, units := range merged {
		switch {
		case units > 0:
			g.Edges = append(g.Edges, DebtEdge{
				From:   p.low,
				To:     p.high,
				Amount: domain.Money{Units: units, Currency: currency},
			})
		case units < 0:
			g.Edges = append(g.Edges, DebtEdge{
				From:   p.high,
				To:     p.low,
				Amount: domain.Money{Units: -units, Currency: currency},
			})
		}
		// zero after merge: dropped
	}

	// Deterministic order regardless of map iteration.
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	return g, nil
}
