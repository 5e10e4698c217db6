package services

import (
	"context"
	"strings"

	apperrors "goze/internal/errors"
	"goze/internal/logger"
	"goze/internal/models"
	"goze/internal/plaid"
)

// DefaultClientName is shown to users inside Plaid Link.
const DefaultClientName = "Goze Financial App"

// plaidService links institutions through Plaid and records the resulting
// items and accounts.
type plaidService struct {
	api        PlaidAPI
	items      ItemServicer
	accounts   AccountServicer
	audit      AuditServicer
	clientName string
}

// NewPlaidService creates a new PlaidServicer.
func NewPlaidService(api PlaidAPI, items ItemServicer, accounts AccountServicer, audit AuditServicer, clientName string) PlaidServicer {
	if clientName == "" {
		clientName = DefaultClientName
	}
	return &plaidService{
		api:        api,
		items:      items,
		accounts:   accounts,
		audit:      audit,
		clientName: clientName,
	}
}

// CreateLinkToken requests a Link token for the transactions product.
func (s *plaidService) CreateLinkToken(ctx context.Context, userID string) (*plaid.LinkToken, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	tok, err := s.api.CreateLinkToken(ctx, plaid.LinkTokenRequest{
		ClientName:   s.clientName,
		Products:     []string{"transactions"},
		CountryCodes: []string{"US"},
		Language:     "en",
		User:         plaid.LinkUser{ClientUserID: userID},
	})
	if err != nil {
		return nil, providerError("creating link token", err)
	}
	return tok, nil
}

// ExchangePublicToken trades a Link public token for a durable access token,
// stores the item under the caller and pulls its accounts.
func (s *plaidService) ExchangePublicToken(ctx context.Context, userID, publicToken string) (*LinkResult, error) {
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "public_token is required")
	}

	exchange, err := s.api.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, providerError("exchanging public token", err)
	}

	item := &models.LinkedItem{
		UserID:      userID,
		ItemID:      exchange.ItemID,
		AccessToken: exchange.AccessToken,
	}

	details, err := s.api.GetItem(ctx, exchange.AccessToken)
	if err != nil {
		return nil, providerError("fetching item", err)
	}
	item.InstitutionID = details.InstitutionID

	if details.InstitutionID != "" {
		inst, err := s.api.GetInstitution(ctx, details.InstitutionID)
		if err != nil {
			logger.Get().Warnw("institution lookup failed", "institution_id", details.InstitutionID, "error", err)
		} else {
			item.InstitutionName = inst.Name
		}
	}

	saved, err := s.items.SaveOrUpdateItem(item)
	if err != nil {
		return nil, err
	}

	providerAccounts, err := s.api.GetAccounts(ctx, exchange.AccessToken)
	if err != nil {
		return nil, providerError("fetching accounts", err)
	}
	accounts, err := s.accounts.UpsertProviderAccounts(userID, saved.ID, providerAccounts)
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("plaid item linked",
		"user_id", userID,
		"item_id", saved.ItemID,
		"institution", saved.InstitutionName,
		"accounts", len(accounts),
		"access_token", plaid.MaskToken(saved.AccessToken),
	)
	s.audit.Record(AuditEvent{
		UserID:       userID,
		Action:       AuditItemLinked,
		ResourceType: models.AuditResourcePlaidItem,
		ResourceID:   saved.ID,
		Details:      map[string]interface{}{"institution_id": saved.InstitutionID, "accounts": len(accounts)},
	})

	return &LinkResult{Item: saved, Accounts: accounts}, nil
}

// GetItemsForUser lists the caller's linked items.
func (s *plaidService) GetItemsForUser(userID string) ([]models.LinkedItem, error) {
	return s.items.ListItemsForUser(userID)
}

func providerError(op string, err error) error {
	logger.Get().Errorw("plaid request failed", "operation", op, "error", err)
	return apperrors.Wrap(apperrors.ErrProvider, err)
}
