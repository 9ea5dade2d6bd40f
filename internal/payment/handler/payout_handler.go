package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticket-ledger/internal/logger"
	"ticket-ledger/internal/payment"
	"ticket-ledger/internal/utils"
)

// PayoutHandler exposes the payment rail's bookkeeping over HTTP: settled
// payout records and per-payee balances from the in-memory rail. It is
// mounted under the main router but kept as its own gin engine.
type PayoutHandler struct {
	payer  *payment.MemoryPayer
	logger *logger.Logger
}

func NewPayoutHandler(payer *payment.MemoryPayer, logger *logger.Logger) *PayoutHandler {
	return &PayoutHandler{
		payer:  payer,
		logger: logger,
	}
}

// Engine builds the gin router for the payout surface.
func (h *PayoutHandler) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/payments/records", h.ListRecords)
	r.GET("/payments/balance/:address", h.GetBalance)

	return r
}

// ListRecords returns every settled payout, oldest first.
func (h *PayoutHandler) ListRecords(c *gin.Context) {
	records := h.payer.Records()
	h.logger.Info("PAYMENT", fmt.Sprintf("listed %d payout records", len(records)))
	c.JSON(http.StatusOK, utils.SuccessResponse("Payout records", records))
}

// GetBalance returns the accumulated payouts for one payee.
func (h *PayoutHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "address is required"))
		return
	}

	balance := h.payer.BalanceOf(address)
	c.JSON(http.StatusOK, utils.SuccessResponse("Payee balance", gin.H{
		"address": address,
		"balance": balance,
	}))
}
