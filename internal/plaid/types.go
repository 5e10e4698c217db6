package plaid

import (
	"github.com/shopspring/decimal"
)

// LinkTokenRequest is the body of /link/token/create.
type LinkTokenRequest struct {
	ClientName   string   `json:"client_name"`
	Products     []string `json:"products"`
	CountryCodes []string `json:"country_codes"`
	Language     string   `json:"language"`
	User         LinkUser `json:"user"`
	Webhook      string   `json:"webhook,omitempty"`
	RedirectURI  string   `json:"redirect_uri,omitempty"`
}

// LinkUser identifies the end user to Plaid Link.
type LinkUser struct {
	ClientUserID string `json:"client_user_id"`
}

// LinkToken is the response of /link/token/create.
type LinkToken struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

// TokenExchange is the response of /item/public_token/exchange.
type TokenExchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

// Item describes a linked item as returned by /item/get.
type Item struct {
	ItemID                string     `json:"item_id"`
	InstitutionID         string     `json:"institution_id"`
	Webhook               string     `json:"webhook"`
	Error                 *ItemError `json:"error"`
	AvailableProducts     []string   `json:"available_products"`
	BilledProducts        []string   `json:"billed_products"`
	Products              []string   `json:"products"`
	ConsentExpirationTime string     `json:"consent_expiration_time"`
	UpdateType            string     `json:"update_type"`
}

// ItemError is the error block Plaid attaches to an unhealthy item.
type ItemError struct {
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}

// Institution is the response payload of /institutions/get_by_id.
type Institution struct {
	InstitutionID  string   `json:"institution_id"`
	Name           string   `json:"name"`
	Products       []string `json:"products"`
	CountryCodes   []string `json:"country_codes"`
	URL            string   `json:"url"`
	PrimaryColor   string   `json:"primary_color"`
	Logo           string   `json:"logo"`
	RoutingNumbers []string `json:"routing_numbers"`
}

// Account is an account as returned by /accounts/get.
type Account struct {
	AccountID           string   `json:"account_id"`
	Name                string   `json:"name"`
	Mask                string   `json:"mask"`
	OfficialName        string   `json:"official_name"`
	Type                string   `json:"type"`
	Subtype             string   `json:"subtype"`
	Balances            Balances `json:"balances"`
	VerificationStatus  string   `json:"verification_status"`
	PersistentAccountID string   `json:"persistent_account_id"`
}

// Balances holds an account's balances. Plaid sends null for balances it
// does not know.
type Balances struct {
	Available              decimal.NullDecimal `json:"available"`
	Current                decimal.NullDecimal `json:"current"`
	Limit                  decimal.NullDecimal `json:"limit"`
	ISOCurrencyCode        string              `json:"iso_currency_code"`
	UnofficialCurrencyCode string              `json:"unofficial_currency_code"`
}

// SyncResponse is one page of the /transactions/sync change feed.
type SyncResponse struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	HasMore    bool                 `json:"has_more"`
	NextCursor string               `json:"next_cursor"`
	RequestID  string               `json:"request_id"`
}

// HasChanges reports whether the page carries any added, modified or removed records.
func (r *SyncResponse) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Modified) > 0 || len(r.Removed) > 0
}

// Transaction is a provider transaction record.
type Transaction struct {
	TransactionID           string                   `json:"transaction_id"`
	AccountID               string                   `json:"account_id"`
	Amount                  decimal.Decimal          `json:"amount"`
	ISOCurrencyCode         string                   `json:"iso_currency_code"`
	UnofficialCurrencyCode  string                   `json:"unofficial_currency_code"`
	Category                []string                 `json:"category"`
	CheckNumber             string                   `json:"check_number"`
	Date                    string                   `json:"date"`
	Datetime                string                   `json:"datetime"`
	AuthorizedDate          string                   `json:"authorized_date"`
	AuthorizedDatetime      string                   `json:"authorized_datetime"`
	Location                *Location                `json:"location"`
	MerchantName            string                   `json:"merchant_name"`
	MerchantEntityID        string                   `json:"merchant_entity_id"`
	LogoURL                 string                   `json:"logo_url"`
	Website                 string                   `json:"website"`
	Name                    string                   `json:"name"`
	OriginalDescription     string                   `json:"original_description"`
	PaymentMeta             *PaymentMeta             `json:"payment_meta"`
	PaymentChannel          string                   `json:"payment_channel"`
	Pending                 bool                     `json:"pending"`
	PendingTransactionID    string                   `json:"pending_transaction_id"`
	AccountOwner            string                   `json:"account_owner"`
	TransactionType         string                   `json:"transaction_type"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category"`
	Counterparties          []Counterparty           `json:"counterparties"`
}

// RemovedTransaction identifies a transaction Plaid no longer reports.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id,omitempty"`
}

// Location is where a transaction happened.
type Location struct {
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Region      string   `json:"region,omitempty"`
	PostalCode  string   `json:"postal_code,omitempty"`
	Country     string   `json:"country,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	StoreNumber string   `json:"store_number,omitempty"`
}

// PaymentMeta carries transfer details for bank-to-bank payments.
type PaymentMeta struct {
	ByOrderOf        string `json:"by_order_of,omitempty"`
	Payee            string `json:"payee,omitempty"`
	Payer            string `json:"payer,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	PaymentProcessor string `json:"payment_processor,omitempty"`
	PPDID            string `json:"ppd_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
	ReferenceNumber  string `json:"reference_number,omitempty"`
}

// PersonalFinanceCategory is Plaid's transaction classification.
type PersonalFinanceCategory struct {
	Primary         string `json:"primary"`
	Detailed        string `json:"detailed"`
	ConfidenceLevel string `json:"confidence_level"`
}

// Counterparty is a merchant or financial institution on a transaction.
type Counterparty struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	LogoURL         string `json:"logo_url"`
	Website         string `json:"website"`
	EntityID        string `json:"entity_id"`
	ConfidenceLevel string `json:"confidence_level"`
	PhoneNumber     string `json:"phone_number"`
}
