package handler

import (
	"time"

	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles settlement lifecycle endpoints.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Create handles POST /api/v1/settlements.
func (h *SettlementHandler) Create(c *gin.Context) {
	var req dto.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	settlement, err := h.settlementSvc.Create(c.Request.Context(), ports.CreateSettlementRequest{
		PayerID:     req.PayerID,
		RecipientID: req.RecipientID,
		Amount:      amount,
		GroupID:     req.GroupID,
		Note:        req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toSettlementResponse(settlement))
}

// Confirm handles POST /api/v1/settlements/:id/confirm. Idempotent:
// confirming an already-confirmed settlement replays the original result.
func (h *SettlementHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("malformed settlement id"))
		return
	}

	settlement, err := h.settlementSvc.Confirm(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSettlementResponse(settlement))
}

// Dispute handles POST /api/v1/settlements/:id/dispute.
func (h *SettlementHandler) Dispute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("malformed settlement id"))
		return
	}

	var req dto.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	settlement, err := h.settlementSvc.Dispute(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSettlementResponse(settlement))
}

// ListForUser handles GET /api/v1/users/:id/settlements.
func (h *SettlementHandler) ListForUser(c *gin.Context) {
	settlements, err := h.settlementSvc.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.SettlementResponse, 0, len(settlements))
	for i := range settlements {
		items = append(items, toSettlementResponse(&settlements[i]))
	}
	response.OK(c, dto.SettlementListResponse{Items: items, Total: len(items)})
}

// toSettlementResponse converts domain.Settlement to DTO.
func toSettlementResponse(s *domain.Settlement) dto.SettlementResponse {
	resp := dto.SettlementResponse{
		ID:            s.ID.String(),
		GroupID:       s.GroupID,
		PayerID:       s.PayerID,
		RecipientID:   s.RecipientID,
		Amount:        s.Amount.String(),
		Currency:      s.Amount.Currency,
		Status:        string(s.Status),
		Note:          s.Note,
		DisputeReason: s.DisputeReason,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if s.ConfirmedAt != nil {
		at := s.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &at
	}
	return resp
}
