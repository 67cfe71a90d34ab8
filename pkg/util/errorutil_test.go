package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewForbidden("nope"))

	de := ToDomainError(err)

	require.NotNil(t, de)
	assert.Equal(t, "FORBIDDEN", de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
}

func TestToDomainError_MapsNoRowsToNotFound(t *testing.T) {
	de := ToDomainError(pgx.ErrNoRows)

	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainError_MapsUniqueViolationToConflict(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})

	de := ToDomainError(err)

	assert.Equal(t, "CONFLICT", de.Code)
	assert.True(t, IsUniqueViolation(err))
}

func TestToDomainError_MapsMalformedKeyToNotFound(t *testing.T) {
	err := fmt.Errorf("get ticket: %w", &pgconn.PgError{Code: "22P02"})

	de := ToDomainError(err)

	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	assert.True(t, IsNotFound(err))
}

func TestToDomainError_HidesUnexpectedErrors(t *testing.T) {
	cause := errors.New("connection reset")

	de := ToDomainError(cause)

	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestNewFieldValidationError(t *testing.T) {
	err := NewFieldValidationError(FieldError{Field: "status", Message: "must be one of New InProgress Done Cancelled"})

	de := ToDomainError(err)

	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	fields, ok := de.Details["fields"].([]FieldError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "status", fields[0].Field)
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(NewNotFound("ticket", nil)))
	assert.False(t, IsNotFound(NewConflict("taken", nil)))
	assert.True(t, HasCode(NewConflict("taken", nil), "CONFLICT"))
	assert.Nil(t, MapError(nil))
}
