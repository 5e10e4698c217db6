package services

import (
	"context"
	"time"

	"goze/internal/models"
	"goze/internal/pagination"
	"goze/internal/plaid"
	"goze/internal/token"
)

// UserServicer defines the contract for the credential store.
type UserServicer interface {
	CreateUser(username, email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByLogin(login string) (*models.User, error)
	UsernameExists(username string) (bool, error)
	EmailExists(email string) (bool, error)
	VerifyPassword(user *models.User, password string) bool
	RecordFailedLogin(user *models.User, now time.Time) (*models.User, error)
	RecordSuccessfulLogin(user *models.User, now time.Time) error
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is a freshly issued token pair and the user it belongs to.
type AuthResult struct {
	Tokens token.Pair
	User   *models.User
}

// TokenInfo describes a valid access token.
type TokenInfo struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expirationDate"`
}

// AuthServicer defines the contract for login, registration and token flows.
type AuthServicer interface {
	Login(ctx context.Context, username, password, clientIP string) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput, clientIP string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Validate(ctx context.Context, accessToken string) (*TokenInfo, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// ItemServicer defines the contract for linked items and their sync cursors.
type ItemServicer interface {
	SaveOrUpdateItem(item *models.LinkedItem) (*models.LinkedItem, error)
	GetItemByID(id string) (*models.LinkedItem, error)
	GetUserItem(userID, id string) (*models.LinkedItem, error)
	ListItemsForUser(userID string) ([]models.LinkedItem, error)
	ListActiveItems() ([]models.LinkedItem, error)
	ListActiveItemsForUser(userID string) ([]models.LinkedItem, error)
	UpdateCursor(id, cursor string) error
	Deactivate(id string) error
}

// AccountServicer defines the contract for provider-backed accounts.
type AccountServicer interface {
	UpsertProviderAccounts(userID, linkedItemID string, accounts []plaid.Account) ([]models.Account, error)
	GetAccountsForUser(userID string) ([]models.Account, error)
	GetActiveAccountsForUser(userID string) ([]models.Account, error)
	GetAccountsForItem(linkedItemID string) ([]models.Account, error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
}

// RecordError describes one provider record that could not be applied.
type RecordError struct {
	ProviderTransactionID string `json:"provider_transaction_id"`
	Stage                 string `json:"stage"`
	Error                 string `json:"error"`
}

// ReconcileResult counts what one change-feed page did to local state.
type ReconcileResult struct {
	Added     int           `json:"added"`
	Updated   int           `json:"updated"`
	Removed   int           `json:"removed"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Errors    []RecordError `json:"errors,omitempty"`
}

// TransactionView is a transaction enriched with its account's display name.
type TransactionView struct {
	models.Transaction
	AccountName string `json:"account_name"`
}

// TransactionServicer defines the contract for reconciliation and the
// transaction read side.
type TransactionServicer interface {
	Reconcile(userID, accountID string, page *plaid.SyncResponse) (*ReconcileResult, error)
	GetTransactionsForUser(userID string, page pagination.PageRequest) (*pagination.PageResponse[TransactionView], error)
	GetExpenseTransactionsForUser(userID string) ([]TransactionView, error)
	GetPendingTransactionsForUser(userID string) ([]models.Transaction, error)
	GetTransactionsInRange(userID string, from, to time.Time) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateNotes(userID, transactionID, notes string) (*models.Transaction, error)
	SetExcludedFromBudget(userID, transactionID string, excluded bool) (*models.Transaction, error)
}

// PlaidAPI is the subset of the Plaid client used for linking.
type PlaidAPI interface {
	CreateLinkToken(ctx context.Context, req plaid.LinkTokenRequest) (*plaid.LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.TokenExchange, error)
	GetItem(ctx context.Context, accessToken string) (*plaid.Item, error)
	GetInstitution(ctx context.Context, institutionID string) (*plaid.Institution, error)
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error)
}

// LinkResult is the outcome of exchanging a public token.
type LinkResult struct {
	Item     *models.LinkedItem `json:"item"`
	Accounts []models.Account   `json:"accounts"`
}

// PlaidServicer defines the contract for linking institutions.
type PlaidServicer interface {
	CreateLinkToken(ctx context.Context, userID string) (*plaid.LinkToken, error)
	ExchangePublicToken(ctx context.Context, userID, publicToken string) (*LinkResult, error)
	GetItemsForUser(userID string) ([]models.LinkedItem, error)
}

// AuditServicer records and lists audit events.
type AuditServicer interface {
	Record(e AuditEvent)
	ListForUser(userID string, limit int) ([]models.AuditLog, error)
}
