package dto

// Amounts and percentages cross the API boundary as decimal strings
// ("120.50", "33.33") and are parsed into exact minor units at the edge.

// SplitParticipantRequest is one participant entry in a split request.
type SplitParticipantRequest struct {
	UserID     string  `json:"user_id" binding:"required,max=64,safe_id"`
	Share      string  `json:"share" binding:"required,money"`
	Percentage *string `json:"percentage,omitempty" binding:"omitempty,money"`
}

// ValidateSplitRequest is the request body for dry-run split validation.
type ValidateSplitRequest struct {
	Amount       string                    `json:"amount" binding:"required,money"`
	Currency     string                    `json:"currency" binding:"required,len=3"`
	SplitType    string                    `json:"split_type" binding:"required,oneof=EQUAL PERCENTAGE CUSTOM"`
	Participants []SplitParticipantRequest `json:"participants" binding:"required,dive"`
}

// ApplySplitRequest is the request body for applying (or reversing) a
// transaction's split against the ledger.
type ApplySplitRequest struct {
	Amount          string                    `json:"amount" binding:"required,money"`
	Currency        string                    `json:"currency" binding:"required,len=3"`
	TransactionType string                    `json:"transaction_type" binding:"required,oneof=EXPENSE INCOME"`
	SplitType       string                    `json:"split_type" binding:"required,oneof=EQUAL PERCENTAGE CUSTOM"`
	PaidBy          string                    `json:"paid_by" binding:"required,max=64,safe_id"`
	GroupID         string                    `json:"group_id,omitempty" binding:"omitempty,max=64,safe_id"`
	Participants    []SplitParticipantRequest `json:"participants" binding:"required,dive"`
}

// CreateSettlementRequest is the request body for recording a settlement.
type CreateSettlementRequest struct {
	PayerID     string `json:"payer_id" binding:"required,max=64,safe_id"`
	RecipientID string `json:"recipient_id" binding:"required,max=64,safe_id"`
	Amount      string `json:"amount" binding:"required,money"`
	Currency    string `json:"currency" binding:"required,len=3"`
	GroupID     string `json:"group_id,omitempty" binding:"omitempty,max=64,safe_id"`
	Note        string `json:"note,omitempty" binding:"omitempty,max=500"`
}

// DisputeRequest is the request body for disputing a settlement.
type DisputeRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ValidationResultResponse reports the outcome of split validation.
type ValidationResultResponse struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// PairBalanceResponse is the net balance between two users. A positive
// amount means user_a owes user_b.
type PairBalanceResponse struct {
	UserA    string `json:"user_a"`
	UserB    string `json:"user_b"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// BalanceEntryResponse is one counterparty entry in a user's balance
// listing. A positive amount means the queried user owes the counterparty.
type BalanceEntryResponse struct {
	OtherUser string `json:"other_user"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// UserBalancesResponse wraps a user's balance listing.
type UserBalancesResponse struct {
	UserID   string                 `json:"user_id"`
	Balances []BalanceEntryResponse `json:"balances"`
}

// SettlementResponse is the response body for settlement results.
type SettlementResponse struct {
	ID            string  `json:"id"`
	GroupID       string  `json:"group_id,omitempty"`
	PayerID       string  `json:"payer_id"`
	RecipientID   string  `json:"recipient_id"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	Note          string  `json:"note,omitempty"`
	DisputeReason *string `json:"dispute_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ConfirmedAt   *string `json:"confirmed_at,omitempty"`
}

// SettlementListResponse wraps a user's settlement history.
type SettlementListResponse struct {
	Items []SettlementResponse `json:"items"`
	Total int                  `json:"total"`
}

// PaymentResponse is one instruction of a simplified settlement plan.
type PaymentResponse struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// PlanResponse is the response body for debt simplification.
type PlanResponse struct {
	Payments                   []PaymentResponse `json:"payments"`
	OriginalTransactionCount   int               `json:"original_transaction_count"`
	SimplifiedTransactionCount int               `json:"simplified_transaction_count"`
	TransactionsSaved          int               `json:"transactions_saved"`
	SavingsPercentage          float64           `json:"savings_percentage"`
}
