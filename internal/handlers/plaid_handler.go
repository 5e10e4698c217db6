package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"goze/internal/scheduler"
	"goze/internal/services"
)

// Syncer runs transaction syncs on demand.
type Syncer interface {
	RunAll(ctx context.Context) (*scheduler.RunResult, error)
	SyncUser(ctx context.Context, userID string) (*scheduler.RunResult, error)
	SyncItem(ctx context.Context, itemID string) (*scheduler.ItemResult, error)
}

// PlaidHandler handles institution linking and manual syncs.
type PlaidHandler struct {
	plaidService services.PlaidServicer
	itemService  services.ItemServicer
	syncer       Syncer
}

// NewPlaidHandler creates a new PlaidHandler.
func NewPlaidHandler(plaidService services.PlaidServicer, itemService services.ItemServicer, syncer Syncer) *PlaidHandler {
	return &PlaidHandler{plaidService: plaidService, itemService: itemService, syncer: syncer}
}

// ExchangeRequest carries the public token returned by Plaid Link.
type ExchangeRequest struct {
	PublicToken string `json:"public_token" binding:"required,plaid_public_token"`
}

// CreateLinkToken starts a Plaid Link session for the caller
// @Summary     Create a Plaid Link token
// @Tags        plaid
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.Envelope{data=plaid.LinkToken}
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Plaid request failed"
// @Router      /plaid/link_token/create [post]
func (h *PlaidHandler) CreateLinkToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tok, err := h.plaidService.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, tok)
}

// ExchangePublicToken links the institution behind a public token
// @Summary     Exchange a Plaid public token
// @Tags        plaid
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExchangeRequest true "Public token from Plaid Link"
// @Success     201 {object} response.Envelope{data=services.LinkResult}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Item linked to another user"
// @Failure     502 {object} ErrorResponse "Plaid request failed"
// @Router      /plaid/public_token/exchange [post]
func (h *PlaidHandler) ExchangePublicToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.plaidService.ExchangePublicToken(c.Request.Context(), userID, req.PublicToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, result)
}

// GetItems lists the caller's linked institutions
// @Summary     List linked items
// @Tags        plaid
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.Envelope{data=[]models.LinkedItem}
// @Router      /plaid/items [get]
func (h *PlaidHandler) GetItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items, err := h.plaidService.GetItemsForUser(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, items)
}

// SyncItem pulls new transactions for one of the caller's items
// @Summary     Sync one linked item
// @Tags        plaid
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Linked item ID"
// @Success     200 {object} response.Envelope{data=scheduler.ItemResult}
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     409 {object} ErrorResponse "Item inactive"
// @Failure     502 {object} ErrorResponse "Plaid request failed"
// @Router      /plaid/items/{id}/sync [post]
func (h *PlaidHandler) SyncItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.itemService.GetUserItem(userID, itemID); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.syncer.SyncItem(c.Request.Context(), itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// SyncAll pulls new transactions for all of the caller's active items
// @Summary     Sync all of the caller's items
// @Tags        plaid
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.Envelope{data=scheduler.RunResult}
// @Failure     502 {object} ErrorResponse "At least one item failed"
// @Router      /plaid/sync [post]
func (h *PlaidHandler) SyncAll(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.syncer.SyncUser(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}
