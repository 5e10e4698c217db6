package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"goze/internal/models"
	"goze/internal/pagination"
	"goze/internal/plaid"
	"goze/internal/testutil"
)

func providerTxn(id, amount, date, name string) plaid.Transaction {
	return plaid.Transaction{
		TransactionID:           id,
		Amount:                  decimal.RequireFromString(amount),
		ISOCurrencyCode:         "USD",
		Date:                    date,
		Name:                    name,
		PersonalFinanceCategory: &plaid.PersonalFinanceCategory{Primary: "FOOD_AND_DRINK", Detailed: "FOOD_AND_DRINK_COFFEE"},
	}
}

type reconcileFixture struct {
	db      *gorm.DB
	svc     TransactionServicer
	user    *models.User
	account *models.Account
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	user := testutil.CreateTestUser(t, db)
	item := testutil.CreateTestLinkedItem(t, db, user.ID)
	account := testutil.CreateTestAccount(t, db, user.ID, item.ID)
	return &reconcileFixture{db: db, svc: NewTransactionService(db), user: user, account: account}
}

func (f *reconcileFixture) rows(t *testing.T, providerID string) []models.Transaction {
	t.Helper()
	var rows []models.Transaction
	require.NoError(t, f.db.Where("user_id = ? AND provider_transaction_id = ?", f.user.ID, providerID).Find(&rows).Error)
	return rows
}

func TestReconcile_Added(t *testing.T) {
	f := newReconcileFixture(t)
	page := &plaid.SyncResponse{Added: []plaid.Transaction{providerTxn("t1", "-5.00", "2024-01-01", "Coffee")}}

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, page)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	rows := f.rows(t, "t1")
	require.Len(t, rows, 1)
	assert.Equal(t, f.account.ID, rows[0].AccountID)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("-5.00")), "amount %s", rows[0].Amount)
	assert.Equal(t, "Coffee", rows[0].Name)
	assert.Equal(t, "FOOD_AND_DRINK", rows[0].Category)
	assert.True(t, rows[0].Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, rows[0].Notes)
	assert.False(t, rows[0].ExcludedFromBudget)
}

func TestReconcile_IdempotentAdd(t *testing.T) {
	f := newReconcileFixture(t)
	page := &plaid.SyncResponse{Added: []plaid.Transaction{providerTxn("t1", "-5.00", "2024-01-01", "Coffee")}}

	_, err := f.svc.Reconcile(f.user.ID, f.account.ID, page)
	require.NoError(t, err)

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, page)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 1, res.Unchanged)
	assert.Len(t, f.rows(t, "t1"), 1)
}

func TestReconcile_ModifiedPreservesUserFields(t *testing.T) {
	f := newReconcileFixture(t)
	existing := testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "t1", "-5.00")
	f.db.Model(existing).Updates(map[string]interface{}{"notes": "foo", "excluded_from_budget": true})

	modified := providerTxn("t1", "-7.25", "2024-01-02", "Coffee Shop")
	modified.Pending = true
	modified.MerchantName = "Blue Bottle"

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{Modified: []plaid.Transaction{modified}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	rows := f.rows(t, "t1")
	require.Len(t, rows, 1)
	got := rows[0]
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-7.25")))
	assert.Equal(t, "Coffee Shop", got.Name)
	assert.Equal(t, "Blue Bottle", got.MerchantName)
	assert.True(t, got.Pending)
	assert.Equal(t, "foo", got.Notes)
	assert.True(t, got.ExcludedFromBudget)
}

func TestReconcile_ModifiedUnknownIsInserted(t *testing.T) {
	f := newReconcileFixture(t)

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{
		Modified: []plaid.Transaction{providerTxn("t9", "12.00", "2024-02-01", "Refund")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Len(t, f.rows(t, "t9"), 1)
}

func TestReconcile_AddModifyCollision(t *testing.T) {
	f := newReconcileFixture(t)

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{
		Added:    []plaid.Transaction{providerTxn("t1", "-5.00", "2024-01-01", "Coffee")},
		Modified: []plaid.Transaction{providerTxn("t1", "-6.00", "2024-01-01", "Coffee (final)")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Updated)

	rows := f.rows(t, "t1")
	require.Len(t, rows, 1)
	assert.Equal(t, "Coffee (final)", rows[0].Name)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("-6.00")))
}

func TestReconcile_RemoveWinsOverSamePageAdd(t *testing.T) {
	f := newReconcileFixture(t)

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{
		Added:   []plaid.Transaction{providerTxn("t1", "-5.00", "2024-01-01", "Coffee")},
		Removed: []plaid.RemovedTransaction{{TransactionID: "t1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Empty(t, f.rows(t, "t1"))

	var count int64
	f.db.Unscoped().Model(&models.Transaction{}).Where("provider_transaction_id = ?", "t1").Count(&count)
	assert.Zero(t, count, "removed rows are hard-deleted")
}

func TestReconcile_ReAddsDeletedTransaction(t *testing.T) {
	f := newReconcileFixture(t)
	page := &plaid.SyncResponse{Added: []plaid.Transaction{providerTxn("t1", "-5.00", "2024-01-01", "Coffee")}}

	_, err := f.svc.Reconcile(f.user.ID, f.account.ID, page)
	require.NoError(t, err)
	require.NoError(t, f.db.Where("provider_transaction_id = ?", "t1").Delete(&models.Transaction{}).Error)

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, page)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Zero(t, res.Skipped)
	assert.Len(t, f.rows(t, "t1"), 1)
}

func TestReconcile_RemovedUnknownIgnored(t *testing.T) {
	f := newReconcileFixture(t)
	testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "keep", "-1.00")

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{
		Removed: []plaid.RemovedTransaction{{TransactionID: "missing"}, {TransactionID: "missing"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	assert.Len(t, f.rows(t, "keep"), 1)
}

func TestReconcile_RemoveIsScopedToUser(t *testing.T) {
	f := newReconcileFixture(t)
	other := testutil.CreateTestUser(t, f.db)
	otherItem := testutil.CreateTestLinkedItem(t, f.db, other.ID)
	otherAccount := testutil.CreateTestAccount(t, f.db, other.ID, otherItem.ID)
	testutil.CreateTestTransaction(t, f.db, other.ID, otherAccount.ID, "shared-id", "-3.00")

	_, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{
		Removed: []plaid.RemovedTransaction{{TransactionID: "shared-id"}},
	})
	require.NoError(t, err)

	var count int64
	f.db.Model(&models.Transaction{}).Where("user_id = ?", other.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReconcile_BadRecordsAreSkipped(t *testing.T) {
	f := newReconcileFixture(t)

	noCategory := providerTxn("t2", "-2.00", "2024-01-01", "No category")
	noCategory.PersonalFinanceCategory = nil

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{
		Added: []plaid.Transaction{
			providerTxn("t1", "-5.00", "2024-01-01", "Coffee"),
			providerTxn("bad-date", "-1.00", "01/02/2024", "Bad date"),
			noCategory,
			providerTxn("", "-1.00", "2024-01-01", "No id"),
			providerTxn("t3", "-3.00", "2024-01-03", "Lunch"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "bad-date", res.Errors[0].ProviderTransactionID)
	assert.Equal(t, StageAdded, res.Errors[0].Stage)

	assert.Len(t, f.rows(t, "t1"), 1)
	assert.Len(t, f.rows(t, "t3"), 1)
	assert.Empty(t, f.rows(t, "t2"))
}

func TestReconcile_StoresStructuredBlobs(t *testing.T) {
	f := newReconcileFixture(t)
	rec := providerTxn("t1", "-5.00", "2024-01-01", "Coffee")
	rec.Location = &plaid.Location{City: "San Francisco", Region: "CA"}
	rec.PaymentMeta = &plaid.PaymentMeta{PaymentProcessor: "Square"}

	_, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{Added: []plaid.Transaction{rec}})
	require.NoError(t, err)

	rows := f.rows(t, "t1")
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"city":"San Francisco","region":"CA"}`, rows[0].Location)
	assert.JSONEq(t, `{"payment_processor":"Square"}`, rows[0].PaymentMeta)
}

func TestReconcile_EmptyPage(t *testing.T) {
	f := newReconcileFixture(t)

	res, err := f.svc.Reconcile(f.user.ID, f.account.ID, &plaid.SyncResponse{})
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, *res)

	_, err = f.svc.Reconcile("", f.account.ID, &plaid.SyncResponse{})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestGetTransactionsForUser(t *testing.T) {
	f := newReconcileFixture(t)
	for i, id := range []string{"a", "b", "c"} {
		tx := testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, id, "-1.00")
		f.db.Model(tx).Update("date", time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC))
	}
	orphan := testutil.CreateTestTransaction(t, f.db, f.user.ID, "00000000-0000-0000-0000-000000000000", "orphan", "-1.00")
	f.db.Model(orphan).Update("date", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.GetTransactionsForUser(f.user.ID, pagination.PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "c", res.Data[0].ProviderTransactionID)
	assert.Equal(t, f.account.Name, res.Data[0].AccountName)

	res, err = f.svc.GetTransactionsForUser(f.user.ID, pagination.PageRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "orphan", res.Data[1].ProviderTransactionID)
	assert.Equal(t, UnknownAccountName, res.Data[1].AccountName)
}

func TestGetExpenseTransactionsForUser(t *testing.T) {
	f := newReconcileFixture(t)
	testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "out", "-12.50")
	testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "in", "100.00")

	views, err := f.svc.GetExpenseTransactionsForUser(f.user.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "out", views[0].ProviderTransactionID)
}

func TestGetPendingAndRange(t *testing.T) {
	f := newReconcileFixture(t)
	pending := testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "p", "-1.00")
	f.db.Model(pending).Update("pending", true)
	testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "posted", "-1.00")

	got, err := f.svc.GetPendingTransactionsForUser(f.user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p", got[0].ProviderTransactionID)

	from := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	inRange, err := f.svc.GetTransactionsInRange(f.user.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	_, err = f.svc.GetTransactionsInRange(f.user.ID, to, from)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestUserOwnedFieldUpdates(t *testing.T) {
	f := newReconcileFixture(t)
	tx := testutil.CreateTestTransaction(t, f.db, f.user.ID, f.account.ID, "t1", "-1.00")

	updated, err := f.svc.UpdateNotes(f.user.ID, tx.ID, "split with Sam")
	require.NoError(t, err)
	assert.Equal(t, "split with Sam", updated.Notes)

	updated, err = f.svc.SetExcludedFromBudget(f.user.ID, tx.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.ExcludedFromBudget)
	assert.Equal(t, "split with Sam", updated.Notes)

	other := testutil.CreateTestUser(t, f.db)
	_, err = f.svc.UpdateNotes(other.ID, tx.ID, "hijack")
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}
