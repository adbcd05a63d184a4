package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "License not found")
		assert.Equal(t, "NOT_FOUND: License not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeStoreUnavailable, "License store unavailable", cause)
		assert.Contains(t, err.Error(), "STORE_UNAVAILABLE")
		assert.Contains(t, err.Error(), "License store unavailable")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "account_number", "reason": "required"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"NotFound", func() *AppError { return NotFound("License") }, ErrCodeNotFound},
		{"DuplicateKey", func() *AppError { return DuplicateKey("License") }, ErrCodeDuplicateKey},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("days", "negative") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("broker_name") }, ErrCodeMissingRequired},
		{"InvalidAction", func() *AppError { return InvalidAction("refund") }, ErrCodeInvalidAction},
		{"InvalidTransition", func() *AppError { return InvalidTransition("active", "approve") }, ErrCodeInvalidTransition},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestStoreUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreUnavailable(cause)
	assert.Equal(t, ErrCodeStoreUnavailable, err.Code)
	assert.Equal(t, cause, err.Unwrap())
}

func TestAsAppError(t *testing.T) {
	t.Run("extracts AppError", func(t *testing.T) {
		original := New(ErrCodeNotFound, "License not found")
		extracted, ok := AsAppError(original)
		assert.True(t, ok)
		assert.Equal(t, original, extracted)
	})

	t.Run("extracts AppError through fmt wrapping", func(t *testing.T) {
		original := DuplicateKey("License")
		wrapped := fmt.Errorf("create license: %w", original)
		extracted, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeDuplicateKey, extracted.Code)
	})

	t.Run("returns false for non-AppError", func(t *testing.T) {
		extracted, ok := AsAppError(errors.New("standard error"))
		assert.False(t, ok)
		assert.Nil(t, extracted)
	})
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "test")))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("standard error")))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(fmt.Errorf("wrap: %w", DuplicateKey("License")), ErrCodeDuplicateKey))
	assert.False(t, IsCode(NotFound("License"), ErrCodeDuplicateKey))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ValidationError("bad")))
	assert.True(t, IsClientError(MissingRequired("account_number")))
	assert.True(t, IsClientError(InvalidAction("refund")))
	assert.True(t, IsClientError(InvalidTransition("active", "approve")))

	assert.False(t, IsClientError(NotFound("License")))
	assert.False(t, IsClientError(StoreUnavailable(errors.New("down"))))
	assert.False(t, IsClientError(errors.New("plain")))
}

func TestMissingRequiredMessage(t *testing.T) {
	assert.Equal(t, "broker_name is required", MissingRequired("broker_name").Message)
	assert.Equal(t, "account_number is required", MissingRequired("account_number").Message)
}
