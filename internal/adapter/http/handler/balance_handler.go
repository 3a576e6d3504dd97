package handler

import (
	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// BalanceHandler handles balance query and debt simplification endpoints.
type BalanceHandler struct {
	ledgerSvc ports.LedgerService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledgerSvc ports.LedgerService) *BalanceHandler {
	return &BalanceHandler{ledgerSvc: ledgerSvc}
}

// PairBalance handles GET /api/v1/balances/:userA/:userB.
func (h *BalanceHandler) PairBalance(c *gin.Context) {
	userA, userB := c.Param("userA"), c.Param("userB")

	net, err := h.ledgerSvc.NetBalance(c.Request.Context(), userA, userB)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PairBalanceResponse{
		UserA:    userA,
		UserB:    userB,
		Amount:   net.String(),
		Currency: net.Currency,
	})
}

// UserBalances handles GET /api/v1/users/:id/balances.
func (h *BalanceHandler) UserBalances(c *gin.Context) {
	userID := c.Param("id")

	balances, err := h.ledgerSvc.BalancesFor(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries := make([]dto.BalanceEntryResponse, 0, len(balances))
	for _, b := range balances {
		entries = append(entries, dto.BalanceEntryResponse{
			OtherUser: b.OtherUser,
			Amount:    b.Amount.String(),
			Currency:  b.Amount.Currency,
		})
	}

	response.OK(c, dto.UserBalancesResponse{UserID: userID, Balances: entries})
}

// SimplifyUser handles GET /api/v1/users/:id/simplify.
func (h *BalanceHandler) SimplifyUser(c *gin.Context) {
	plan, err := h.ledgerSvc.SimplifyForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPlanResponse(plan))
}

// SimplifyGroup handles GET /api/v1/groups/:id/simplify.
func (h *BalanceHandler) SimplifyGroup(c *gin.Context) {
	plan, err := h.ledgerSvc.SimplifyForGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPlanResponse(plan))
}

func toPlanResponse(plan *domain.SettlementPlan) dto.PlanResponse {
	payments := make([]dto.PaymentResponse, 0, len(plan.Payments))
	for _, p := range plan.Payments {
		payments = append(payments, dto.PaymentResponse{
			From:     p.From,
			To:       p.To,
			Amount:   p.Amount.String(),
			Currency: p.Amount.Currency,
		})
	}
	return dto.PlanResponse{
		Payments:                   payments,
		OriginalTransactionCount:   plan.OriginalTransactionCount,
		SimplifiedTransactionCount: plan.SimplifiedTransactionCount,
		TransactionsSaved:          plan.TransactionsSaved,
		SavingsPercentage:          plan.SavingsPercentage,
	}
}
