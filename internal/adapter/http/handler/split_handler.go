package handler

import (
	"errors"

	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// SplitHandler handles split validation and ledger application endpoints.
type SplitHandler struct {
	splitSvc ports.SplitService
}

// NewSplitHandler creates a new SplitHandler.
func NewSplitHandler(splitSvc ports.SplitService) *SplitHandler {
	return &SplitHandler{splitSvc: splitSvc}
}

// Validate handles POST /api/v1/splits/validate. Dry run: reports every
// rule violation, mutates nothing.
func (h *SplitHandler) Validate(c *gin.Context) {
	var req dto.ValidateSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	total, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	participants, err := toParticipants(req.Participants, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.splitSvc.ValidateSplit(c.Request.Context(), total, domain.SplitType(req.SplitType), participants)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toValidationResponse(res))
}

// Apply handles POST /api/v1/transactions/:id/split. Validates the split
// and, when valid, applies it to the balance ledger atomically.
func (h *SplitHandler) Apply(c *gin.Context) {
	txn, ok := h.bindTransaction(c)
	if !ok {
		return
	}

	res, err := h.splitSvc.ApplySplit(c.Request.Context(), txn)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !res.IsValid {
		response.UnprocessableEntity(c, toValidationResponse(res))
		return
	}

	response.Created(c, toValidationResponse(res))
}

// Reverse handles DELETE /api/v1/transactions/:id/split. The caller
// resubmits the split exactly as it was applied; integer arithmetic makes
// the inverse restore prior balances exactly.
func (h *SplitHandler) Reverse(c *gin.Context) {
	txn, ok := h.bindTransaction(c)
	if !ok {
		return
	}

	if err := h.splitSvc.ReverseSplit(c.Request.Context(), txn); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"reversed": true, "transaction_id": txn.ID})
}

func (h *SplitHandler) bindTransaction(c *gin.Context) (domain.Transaction, bool) {
	var req dto.ApplySplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return domain.Transaction{}, false
	}
	dto.SanitizeStruct(&req)

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return domain.Transaction{}, false
	}
	participants, err := toParticipants(req.Participants, req.Currency)
	if err != nil {
		response.Error(c, err)
		return domain.Transaction{}, false
	}

	return domain.Transaction{
		ID:     c.Param("id"),
		Amount: amount,
		Type:   domain.TransactionType(req.TransactionType),
		Split: &domain.SplitConfig{
			Type:         domain.SplitType(req.SplitType),
			PaidBy:       req.PaidBy,
			GroupID:      req.GroupID,
			Participants: participants,
		},
	}, true
}

// parseAmount converts a decimal string into minor units, mapping parse
// failures onto the API error codes.
func parseAmount(s, currency string) (domain.Money, error) {
	m, err := domain.ParseMoney(s, currency)
	if err != nil {
		if errors.Is(err, domain.ErrAmountOutOfRange) {
			return domain.Money{}, apperror.ErrAmountOutOfRange()
		}
		return domain.Money{}, apperror.Validation("malformed amount: " + s)
	}
	return m, nil
}

func toParticipants(reqs []dto.SplitParticipantRequest, currency string) ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0, len(reqs))
	for _, p := range reqs {
		share, err := parseAmount(p.Share, currency)
		if err != nil {
			return nil, err
		}
		participant := domain.Participant{UserID: p.UserID, Share: share}
		if p.Percentage != nil {
			pct, err := domain.ParsePercent(*p.Percentage)
			if err != nil {
				return nil, apperror.Validation("malformed percentage: " + *p.Percentage)
			}
			participant.Percent = &pct
		}
		participants = append(participants, participant)
	}
	return participants, nil
}

func toValidationResponse(res *domain.ValidationResult) dto.ValidationResultResponse {
	return dto.ValidationResultResponse{
		IsValid: res.IsValid,
		Errors:  res.Errors,
	}
}
