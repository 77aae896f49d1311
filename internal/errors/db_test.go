package errors

import (
	"context"
	stderrors "errors"
	"fmt"
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
	err := MapDBError(fmt.Errorf("get order: %w", pgx.ErrNoRows))
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.True(t, IsNotFound(err))
}

func TestMapDBError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, CodeOf(MapDBError(context.DeadlineExceeded)))
	assert.Equal(t, ErrCodeCanceled, CodeOf(MapDBError(context.Canceled)))
}

func TestMapDBError_UniqueViolationExtractsField(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: `Key (number)=(ORD-1001) already exists.`,
	}
	err := MapDBError(pgErr)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeConflict, appErr.Code)
	assert.Equal(t, "number", appErr.Field)
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
	assert.Equal(t, ErrCodeForeignKey, CodeOf(err))
}

func TestMapDBError_CheckViolation(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "total_cents"})

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeValidation, appErr.Code)
	assert.Equal(t, "total_cents", appErr.Field)
}

func TestMapDBError_UnknownPassesThrough(t *testing.T) {
	sentinel := stderrors.New("connection reset")
	assert.Equal(t, sentinel, MapDBError(sentinel))
}
