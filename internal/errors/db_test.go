package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError_Nil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMapDBError_ContextErrors(t *testing.T) {
	var appErr *AppError

	require.ErrorAs(t, MapDBError(context.DeadlineExceeded), &appErr)
	assert.Equal(t, ErrCodeTimeout, appErr.Code)

	require.ErrorAs(t, MapDBError(context.Canceled), &appErr)
	assert.Equal(t, ErrCodeCanceled, appErr.Code)
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (username)=(sorc99) already exists.",
	}

	err := MapDBError(pgErr)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "username", appErr.Field)
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:      pgerrcode.ForeignKeyViolation,
		TableName: "trade_offers",
	}

	err := MapDBError(pgErr)
	require.Error(t, err)
	assert.True(t, IsForeignKey(err))
	assert.Contains(t, err.Error(), "trade offer")
}

func TestMapDBError_CheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       pgerrcode.CheckViolation,
		ColumnName: "status",
	}

	err := MapDBError(pgErr)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestMapDBError_PassthroughUnknown(t *testing.T) {
	original := errors.New("dial tcp: connection refused")
	assert.Equal(t, original, MapDBError(original))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, ErrCodeInternal, "wrapped")
	assert.ErrorIs(t, err, cause)
}
