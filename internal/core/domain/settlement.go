package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusConfirmed SettlementStatus = "CONFIRMED"
	SettlementStatusDisputed  SettlementStatus = "DISPUTED"
)

// Settlement records a real-world payment between two users. It is created
// Pending by the payer; only the Confirmed transition touches the ledger.
// Confirmed and Disputed are terminal: reversing a confirmed settlement
// means issuing a new, opposite one.
type Settlement struct {
	ID            uuid.UUID        `json:"id"`
	GroupID       string           `json:"group_id,omitempty"`
	PayerID       string           `json:"payer_id"`
	RecipientID   string           `json:"recipient_id"`
	Amount        Money            `json:"amount"`
	Status        SettlementStatus `json:"status"`
	Note          string           `json:"note,omitempty"`
	DisputeReason *string          `json:"dispute_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	ConfirmedAt   *time.Time       `json:"confirmed_at,omitempty"`
}

// IsTerminal reports whether the settlement can no longer transition.
func (s *Settlement) IsTerminal() bool {
	return s.Status == SettlementStatusConfirmed || s.Status == SettlementStatusDisputed
}

// CanConfirm reports whether a confirm transition is allowed from the
// current state. Re-confirming a Confirmed settlement is a tolerated no-op,
// handled by the caller, not a transition.
func (s *Settlement) CanConfirm() bool {
	return s.Status == SettlementStatusPending
}

// CanDispute reports whether a dispute transition is allowed.
func (s *Settlement) CanDispute() bool {
	return s.Status == SettlementStatusPending
}
