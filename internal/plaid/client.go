// Package plaid is a small HTTP client for the Plaid endpoints used to link
// institutions and pull the transactions change feed.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIVersion is the Plaid API version every request is pinned to.
const APIVersion = "2020-09-14"

// Base URLs per Plaid environment.
const (
	SandboxURL     = "https://sandbox.plaid.com"
	DevelopmentURL = "https://development.plaid.com"
	ProductionURL  = "https://production.plaid.com"
)

// BaseURL returns the API host for env, defaulting to sandbox.
func BaseURL(env string) string {
	switch strings.ToLower(env) {
	case "production":
		return ProductionURL
	case "development":
		return DevelopmentURL
	default:
		return SandboxURL
	}
}

// Client talks to the Plaid API.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

// NewClient creates a new Plaid client. The http.Client's timeout bounds
// every call.
func NewClient(baseURL, clientID, secret string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		httpClient: httpClient,
	}
}

// APIError is the error body Plaid returns with non-2xx responses.
type APIError struct {
	StatusCode     int    `json:"-"`
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("plaid: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("plaid: %s (%s): %s", e.ErrorCode, e.ErrorType, e.ErrorMessage)
}

// IsItemLoginRequired reports whether err says the item's credentials are no
// longer valid and the user must re-link it.
func IsItemLoginRequired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == "ITEM_LOGIN_REQUIRED"
}

// CreateLinkToken creates a Link token for the given request.
func (c *Client) CreateLinkToken(ctx context.Context, req LinkTokenRequest) (*LinkToken, error) {
	var out LinkToken
	if err := c.post(ctx, "/link/token/create", req, &out); err != nil {
		return nil, fmt.Errorf("creating link token: %w", err)
	}
	return &out, nil
}

// ExchangePublicToken trades a Link public token for a durable access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*TokenExchange, error) {
	body := struct {
		PublicToken string `json:"public_token"`
	}{PublicToken: publicToken}

	var out TokenExchange
	if err := c.post(ctx, "/item/public_token/exchange", body, &out); err != nil {
		return nil, fmt.Errorf("exchanging public token: %w", err)
	}
	return &out, nil
}

// GetItem returns the item behind accessToken.
func (c *Client) GetItem(ctx context.Context, accessToken string) (*Item, error) {
	body := struct {
		AccessToken string `json:"access_token"`
	}{AccessToken: accessToken}

	var out struct {
		Item      Item   `json:"item"`
		RequestID string `json:"request_id"`
	}
	if err := c.post(ctx, "/item/get", body, &out); err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &out.Item, nil
}

// GetInstitution looks up an institution by id.
func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	body := struct {
		InstitutionID string   `json:"institution_id"`
		CountryCodes  []string `json:"country_codes"`
	}{InstitutionID: institutionID, CountryCodes: []string{"US"}}

	var out struct {
		Institution Institution `json:"institution"`
		RequestID   string      `json:"request_id"`
	}
	if err := c.post(ctx, "/institutions/get_by_id", body, &out); err != nil {
		return nil, fmt.Errorf("getting institution: %w", err)
	}
	return &out.Institution, nil
}

// GetAccounts lists the accounts under the item behind accessToken.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	body := struct {
		AccessToken string `json:"access_token"`
	}{AccessToken: accessToken}

	var out struct {
		Accounts  []Account `json:"accounts"`
		RequestID string    `json:"request_id"`
	}
	if err := c.post(ctx, "/accounts/get", body, &out); err != nil {
		return nil, fmt.Errorf("getting accounts: %w", err)
	}
	return out.Accounts, nil
}

// SyncTransactions fetches one page of the transactions change feed. An
// empty cursor requests the full history.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*SyncResponse, error) {
	body := struct {
		AccessToken string `json:"access_token"`
		Cursor      string `json:"cursor,omitempty"`
		Count       int    `json:"count,omitempty"`
	}{AccessToken: accessToken, Cursor: cursor, Count: count}

	var out SyncResponse
	if err := c.post(ctx, "/transactions/sync", body, &out); err != nil {
		return nil, fmt.Errorf("syncing transactions: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.clientID)
	req.Header.Set("PLAID-SECRET", c.secret)
	req.Header.Set("Plaid-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// MaskToken shortens a credential for logging.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
