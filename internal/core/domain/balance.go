package domain

import (
	"errors"
	"time"
)

// ErrSelfPair rejects a balance between a user and itself.
var ErrSelfPair = errors.New("self settlement: both sides of the pair are the same user")

// BalanceEdge is the signed net balance between an unordered pair of users,
// stored normalized: UserLow < UserHigh, and a positive Amount means
// "UserLow owes UserHigh". Zero edges are never persisted.
//
// BalanceEdge rows are mutated only by the ledger and settlement paths;
// nothing else writes them.
type BalanceEdge struct {
	UserLow   string    `json:"user_low"`
	UserHigh  string    `json:"user_high"`
	GroupID   string    `json:"group_id,omitempty"` // "" = no group scope
	Amount    Money     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizePair orders a user pair for storage. The pair is unordered in the
// domain; normalization gives every pair exactly one row.
func NormalizePair(a, b string) (low, high string, err error) {
	if a == b {
		return "", "", ErrSelfPair
	}
	if a < b {
		return a, b, nil
	}
	return b, a, nil
}

// BalanceFrom returns the edge's value from one user's perspective:
// positive means that user owes the other.
func (e BalanceEdge) BalanceFrom(userID string) Money {
	if userID == e.UserLow {
		return e.Amount
	}
	return e.Amount.Negate()
}

// Other returns the counterparty of the given user on this edge.
func (e BalanceEdge) Other(userID string) string {
	if userID == e.UserLow {
		return e.UserHigh
	}
	return e.UserLow
}

// UserBalance is one entry of a user's balance listing: positive Amount
// means the user owes the counterparty.
type UserBalance struct {
	OtherUser string `json:"other_user"`
	Amount    Money  `json:"amount"`
}

// SimplifiedPayment is one instruction of a reduced settlement plan. It is
// computed on demand from current edges and never persisted.
type SimplifiedPayment struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount Money  `json:"amount"`
}

// SettlementPlan is the output of debt simplification: the payments plus
// how much churn the reduction removed.
type SettlementPlan struct {
	Payments                   []SimplifiedPayment `json:"payments"`
	OriginalTransactionCount   int                 `json:"original_transaction_count"`
	SimplifiedTransactionCount int                 `json:"simplified_transaction_count"`
	TransactionsSaved          int                 `json:"transactions_saved"`
	SavingsPercentage          float64             `json:"savings_percentage"`
}
