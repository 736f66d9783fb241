package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NewAuthError("bad token", nil), http.StatusUnauthorized},
		{NewForbiddenError("superuser required", nil), http.StatusForbidden},
		{NewNotFoundError("no such product", nil), http.StatusNotFound},
		{NewValidationError("email is required", nil), http.StatusBadRequest},
		{NewBadRequestError("malformed body", nil), http.StatusBadRequest},
		{NewConflictError("email already exists", nil), http.StatusConflict},
		{NewExternalServiceError("smtp unavailable", nil), http.StatusBadGateway},
		{NewDatabaseError("query failed", nil), http.StatusInternalServerError},
		{NewInternalError("boom", nil), http.StatusInternalServerError},
		{NewAppError(UnknownError, "???", nil), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.StatusCode(), c.err.Message)
	}
}

func TestToResponseHidesCause(t *testing.T) {
	cause := errors.New("pq: duplicate key value violates unique constraint \"users_email_key\"")
	appErr := NewConflictError("email already exists", cause)

	resp := appErr.ToResponse()
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "email already exists", resp.Message)
	assert.Equal(t, "conflict", resp.ErrorType)
	assert.NotContains(t, resp.Message, "pq:")
}

func TestErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := NewDatabaseError("query failed", cause)
	assert.Equal(t, "query failed: connection refused", appErr.Error())
	assert.Equal(t, cause, errors.Unwrap(appErr))
}

func TestFromErrorUnwrapsChain(t *testing.T) {
	appErr := NewNotFoundError("user not found", nil)
	wrapped := fmt.Errorf("looking up actor: %w", appErr)

	got, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, NotFoundError, got.Type)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.True(t, IsConflict(fmt.Errorf("wrapped: %w", NewConflictError("x", nil))))
	assert.True(t, IsForbidden(NewForbiddenError("x", nil)))
	assert.True(t, IsAuthError(NewAuthError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.False(t, IsNotFound(NewConflictError("x", nil)))
	assert.False(t, IsConflict(errors.New("plain")))
}
