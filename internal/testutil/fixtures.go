package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"goze/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a unique username and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates an active user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    username + "@test.com",
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestLinkedItem creates an active linked item with no sync cursor.
func CreateTestLinkedItem(t *testing.T, db *gorm.DB, userID string) *models.LinkedItem {
	t.Helper()

	n := nextID()
	item := &models.LinkedItem{
		UserID:          userID,
		ItemID:          fmt.Sprintf("item-%d", n),
		AccessToken:     fmt.Sprintf("access-sandbox-%d", n),
		InstitutionID:   "ins_109508",
		InstitutionName: "First Platypus Bank",
		IsActive:        true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test linked item: %v", err)
	}
	return item
}

// CreateTestAccount creates an active depository account under item.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID, linkedItemID string) *models.Account {
	t.Helper()

	n := nextID()
	account := &models.Account{
		UserID:            userID,
		LinkedItemID:      linkedItemID,
		ExternalAccountID: fmt.Sprintf("acc-%d", n),
		Name:              fmt.Sprintf("Test Checking %d", n),
		Type:              "depository",
		Subtype:           "checking",
		CurrencyCode:      "USD",
		IsActive:          true,
		LastUpdated:       time.Now(),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a posted transaction with the given provider id and amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID, providerID, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:                userID,
		AccountID:             accountID,
		ProviderTransactionID: providerID,
		Amount:                decimal.RequireFromString(amount),
		CurrencyCode:          "USD",
		Date:                  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Name:                  "Test Transaction",
		Category:              "GENERAL_MERCHANDISE",
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
