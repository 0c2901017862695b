package handlers

import (
	"strconv"

	"secondhand-market-server/internal/middleware"
	"secondhand-market-server/internal/models"
	"secondhand-market-server/internal/trade"
	"secondhand-market-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles negotiation requests.
type TransactionHandler struct {
	Trade *trade.Service
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(tradeSvc *trade.Service) *TransactionHandler {
	return &TransactionHandler{Trade: tradeSvc}
}

// transactionView wraps a transaction with its prefixed public id.
func transactionView(tx *models.Transaction) gin.H {
	return gin.H{
		"id":          tx.PublicID(),
		"transaction": tx,
	}
}

// CreateInquiry opens a negotiation on a product.
func (h *TransactionHandler) CreateInquiry(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req trade.CreateInquiryInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	tx, err := h.Trade.CreateInquiry(c.Request.Context(), userID, req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "Inquiry created", transactionView(tx))
}

// AgreeOffline confirms an offline meetup as the seller. The response
// contains the pickup code; it is never shared with the buyer directly.
func (h *TransactionHandler) AgreeOffline(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	transactionID := c.Param("transactionId")

	var req trade.AgreeOfflineInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.Trade.AgreeOffline(c.Request.Context(), transactionID, userID, req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Offline meetup agreed", gin.H{
		"id":            result.Transaction.PublicID(),
		"transaction":   result.Transaction,
		"code":          result.Code,
		"codeExpiresAt": result.CodeExpires,
		"contactPhone":  result.ContactPhone,
	})
}

// Complete finishes the deal with the buyer-presented pickup code.
func (h *TransactionHandler) Complete(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	transactionID := c.Param("transactionId")

	var req trade.CompleteInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	tx, err := h.Trade.Complete(c.Request.Context(), transactionID, userID, req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Transaction completed", transactionView(tx))
}

// Cancel ends a non-terminal negotiation.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	transactionID := c.Param("transactionId")

	var req trade.CancelInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	tx, err := h.Trade.Cancel(c.Request.Context(), transactionID, userID, req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Transaction cancelled", transactionView(tx))
}

// List returns the caller's transactions, filtered by role and status.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	role := c.DefaultQuery("role", "all")
	status := models.TransactionStatus(c.Query("status"))

	txs, total, err := h.Trade.List(c.Request.Context(), userID, role, status, page, size)
	if err != nil {
		utils.FromError(c, err)
		return
	}

	views := make([]gin.H, 0, len(txs))
	for i := range txs {
		views = append(views, transactionView(&txs[i]))
	}
	utils.Success(c, "Transactions fetched successfully", gin.H{
		"transactions": views,
		"total":        total,
		"page":         page,
	})
}

// Get returns a single transaction visible to one of its parties.
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	transactionID := c.Param("transactionId")

	tx, err := h.Trade.Get(c.Request.Context(), transactionID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Transaction fetched successfully", transactionView(tx))
}
