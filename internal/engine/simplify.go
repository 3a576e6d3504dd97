package engine

import (
	"sort"

	"splitledger/internal/core/domain"
)

// Simplify reduces a debt graph to a smaller set of payments with the same
// net effect per user.
//
// Greedy max-pair matching: repeatedly settle the creditor with the largest
// positive net against the debtor with the largest-magnitude negative net.
// This yields at most n-1 payments for n net-nonzero users and is optimal
// for two parties; finding the true minimum number of payments is NP-hard
// in general, so for larger groups this is a deliberate, documented
// approximation. Ties break toward the lower user id, making the output
// reproducible for a given snapshot.
func Simplify(g *DebtGraph) *domain.SettlementPlan {
	nets := netPositions(g)

	// Sorted user list keeps selection deterministic.
	users := make([]string, 0, len(nets))
	for u := range nets {
		users = append(users, u)
	}
	sort.Strings(users)

	var payments []domain.SimplifiedPayment
	for {
		creditor, debtor := "", ""
		var maxCredit, maxDebt int64
		for _, u := range users {
			n := nets[u]
			if n > maxCredit {
				creditor, maxCredit = u, n
			}
			if n < -maxDebt {
				debtor, maxDebt = u, -n
			}
		}
		if creditor == "" || debtor == "" {
			break
		}

		pay := maxDebt
		if maxCredit < pay {
			pay = maxCredit
		}

		payments = append(payments, domain.SimplifiedPayment{
			From:   debtor,
			To:     creditor,
			Amount: domain.Money{Units: pay, Currency: g.Currency},
		})
		nets[debtor] += pay
		nets[creditor] -= pay
	}

	original := len(g.Edges)
	simplified := len(payments)
	plan := &domain.SettlementPlan{
		Payments:                   payments,
		OriginalTransactionCount:   original,
		SimplifiedTransactionCount: simplified,
		TransactionsSaved:          original - simplified,
	}
	if original > 0 {
		plan.SavingsPercentage = float64(plan.TransactionsSaved) / float64(original) * 100
	}
	return plan
}

// netPositions computes each user's net in minor units: amounts owed to
// them minus amounts they owe, across every edge touching them.
func netPositions(g *DebtGraph) map[string]int64 {
	nets := make(map[string]int64)
	for _, e := range g.Edges {
		nets[e.From] -= e.Amount.Units
		nets[e.To] += e.Amount.Units
	}
	return nets
}
