package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
	"goze/internal/pagination"
	"goze/internal/services"
)

// TransactionHandler serves the dashboard's transaction views.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// UpdateTransactionRequest changes the user-owned fields of a transaction.
type UpdateTransactionRequest struct {
	Notes              *string `json:"notes" binding:"omitempty,max=1000"`
	ExcludedFromBudget *bool   `json:"excluded_from_budget"`
}

// GetTransactions returns the caller's transactions, newest first
// @Summary     List transactions
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} response.Envelope{data=pagination.PageResponse[services.TransactionView]}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard/transactions/get/all [post]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.transactionService.GetTransactionsForUser(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// GetExpenses returns the caller's outflows
// @Summary     List expense transactions
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.Envelope{data=[]services.TransactionView}
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard/transactions/get/expenses [post]
func (h *TransactionHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	views, err := h.transactionService.GetExpenseTransactionsForUser(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, views)
}

// UpdateTransaction edits notes and the budget-exclusion flag
// @Summary     Update a transaction's notes or budget flag
// @Tags        dashboard
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} response.Envelope{data=models.Transaction}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /dashboard/transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if req.Notes == nil && req.ExcludedFromBudget == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "notes or excluded_from_budget is required"))
		return
	}

	if req.Notes != nil {
		if _, err := h.transactionService.UpdateNotes(userID, transactionID, *req.Notes); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.ExcludedFromBudget != nil {
		if _, err := h.transactionService.SetExcludedFromBudget(userID, transactionID, *req.ExcludedFromBudget); err != nil {
			respondWithError(c, err)
			return
		}
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, transaction)
}
