package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation failed: Email - must be a valid email", NewValidationError("Email", "must be a valid email").Error())
	assert.Equal(t, "validation failed: bad input", NewValidationError("", "bad input").Error())
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("failed to get user", cause)

	assert.Equal(t, "failed to get user: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("FirstName", "is required"), http.StatusBadRequest},
		{"duplicate email", NewDuplicateEmailError("matti@example.com"), http.StatusConflict},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
		{"wrapped duplicate", fmt.Errorf("create: %w", NewDuplicateEmailError("a@b.c")), http.StatusConflict},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsValidation(fmt.Errorf("x: %w", NewValidationError("Email", "invalid email"))))
	assert.False(t, IsValidation(NewInternalError("internal server error", nil)))
	assert.True(t, IsDuplicateEmail(NewDuplicateEmailError("a@b.c")))
	assert.False(t, IsDuplicateEmail(errors.New("email already exists")))
}
