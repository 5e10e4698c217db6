package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "goze/internal/errors"
)

// AssertAppError stops the test unless err unwraps to an *AppError carrying
// code. It returns the AppError for further checks.
func AssertAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()

	require.Error(t, err, "expected AppError with code %q", code)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
	return appErr
}

// AssertNoError stops the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertRowCount counts rows of model matching the optional where clause,
// soft-deleted rows excluded.
func AssertRowCount(t *testing.T, db *gorm.DB, model interface{}, want int64, where ...interface{}) {
	t.Helper()

	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	var got int64
	require.NoError(t, q.Count(&got).Error)
	require.Equal(t, want, got, "row count for %T", model)
}
