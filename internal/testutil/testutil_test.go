package testutil_test

import (
	"testing"

	"goze/internal/errors"
	"goze/internal/models"
	"goze/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "plaid_items", "accounts", "transactions", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	db1 := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db1)
	db2 := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db2)

	testutil.CreateTestUser(t, db1)

	var count int64
	db2.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected an empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	item := testutil.CreateTestLinkedItem(t, db, user.ID)
	if !item.IsActive || item.Cursor != nil {
		t.Errorf("expected an active item without cursor, got %+v", item)
	}

	account := testutil.CreateTestAccount(t, db, user.ID, item.ID)
	if account.LinkedItemID != item.ID {
		t.Errorf("expected account under item %s, got %s", item.ID, account.LinkedItemID)
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "t1", "-5.00")
	if tx.Amount.String() != "-5" {
		t.Errorf("expected amount -5, got %s", tx.Amount)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	appErr := testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	if appErr.Message != "custom message" {
		t.Errorf("expected custom message, got %q", appErr.Message)
	}
}

func TestAssertRowCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	item := testutil.CreateTestLinkedItem(t, db, user.ID)
	account := testutil.CreateTestAccount(t, db, user.ID, item.ID)
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, "t1", "-5.00")
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, "t2", "7.25")

	testutil.AssertRowCount(t, db, &models.Transaction{}, 2)
	testutil.AssertRowCount(t, db, &models.Transaction{}, 1, "amount < ?", 0)
}

func TestBaseAssignsID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	entry := &models.AuditLog{Action: "LOGIN", ResourceType: models.AuditResourceUser}
	testutil.AssertNoError(t, db.Create(entry).Error)
	if entry.ID == "" {
		t.Fatal("expected a generated ID")
	}

	bad := testutil.CreateTestUser(t, db)
	bad.ID = "not-a-uuid"
	bad.Username = "second"
	bad.Email = "second@example.com"
	if err := db.Create(bad).Error; err == nil {
		t.Error("expected a malformed primary key to be rejected")
	}
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
