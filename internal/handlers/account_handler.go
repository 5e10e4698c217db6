package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goze/internal/services"
)

// AccountHandler serves the dashboard's account list.
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// GetAccounts returns the caller's active accounts. Any body is ignored.
// @Summary     List accounts
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.Envelope{data=[]models.Account}
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard/accounts/get/all [post]
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.GetActiveAccountsForUser(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, accounts)
}
