package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SplitType selects the strategy used to divide a transaction's amount.
type SplitType string

const (
	SplitTypeEqual      SplitType = "EQUAL"
	SplitTypePercentage SplitType = "PERCENTAGE"
	SplitTypeCustom     SplitType = "CUSTOM"
)

// Valid reports whether the value is a known split type.
func (t SplitType) Valid() bool {
	switch t {
	case SplitTypeEqual, SplitTypePercentage, SplitTypeCustom:
		return true
	}
	return false
}

// Percent is a percentage carried in hundredths of a percent, so the
// two-decimal precision of the upstream field is exact (50.25% == 5025).
type Percent int64

// PercentHundred is 100% in hundredths of a percent.
const PercentHundred Percent = 10_000

var ErrBadPercentFormat = errors.New("malformed percentage")

// ParsePercent converts a decimal percentage string ("50", "33.33") into
// hundredths of a percent. More than two fractional digits are rejected.
func ParsePercent(s string) (Percent, error) {
	m, err := ParseMoney(s, "")
	if err != nil {
		return 0, ErrBadPercentFormat
	}
	return Percent(m.Units), nil
}

// String renders the percentage as a two-decimal string without the sign
// quirks of float formatting.
func (p Percent) String() string {
	return Money{Units: int64(p)}.String()
}

// Participant is one user's part in a split: an owed share, an optional
// percentage (for percentage splits), and settlement bookkeeping.
type Participant struct {
	UserID    string     `json:"user_id"`
	Share     Money      `json:"share"`
	Percent   *Percent   `json:"percent,omitempty"`
	Settled   bool       `json:"settled"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// MarkSettled flips the settled flag, keeping the invariant that a settled
// participant always carries a settlement timestamp.
func (p *Participant) MarkSettled(at time.Time) {
	p.Settled = true
	p.SettledAt = &at
}

// SplitConfig describes how one transaction's amount is divided. It is owned
// by the transaction that created it and replaced wholesale on update.
type SplitConfig struct {
	Type         SplitType     `json:"split_type"`
	PaidBy       string        `json:"paid_by"`
	Participants []Participant `json:"participants"`
	GroupID      string        `json:"group_id,omitempty"`
}

// CheckInvariants verifies the structural preconditions the validator is
// allowed to assume. A failure here is a programming error in the caller,
// not a business-rule violation.
func (c SplitConfig) CheckInvariants() error {
	if !c.Type.Valid() {
		return fmt.Errorf("unknown split type %q", c.Type)
	}
	if len(c.Participants) == 0 {
		return errors.New("split has no participants")
	}
	paidByFound := false
	for i, p := range c.Participants {
		if strings.TrimSpace(p.UserID) == "" {
			return fmt.Errorf("participant %d has no user id", i+1)
		}
		if p.UserID == c.PaidBy {
			paidByFound = true
		}
		if p.Settled && p.SettledAt == nil {
			return fmt.Errorf("participant %s is settled without a timestamp", p.UserID)
		}
	}
	if !paidByFound {
		return fmt.Errorf("paid_by %q is not a participant", c.PaidBy)
	}
	return nil
}

// TransactionType tags a transaction as money in or money out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Transaction is the externally owned record this engine consumes read-only.
// Only expense transactions may carry a split.
type Transaction struct {
	ID     string          `json:"id"`
	Amount Money           `json:"amount"`
	Type   TransactionType `json:"type"`
	Split  *SplitConfig    `json:"split,omitempty"`
}

// ValidationResult accumulates every rule violation found in a proposed
// split, so the caller can render all problems at once. It is a value, never
// an error: business-rule violations do not unwind.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Addf appends a formatted violation and flips IsValid.
func (r *ValidationResult) Addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

// NewValidationResult returns an empty, passing result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true, Errors: []string{}}
}
