package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrValidation     = errors.New("validation failed")
	ErrInternalServer = errors.New("internal server error")

	// Uniqueness violations, both wrap ErrConflict
	ErrEmailTaken  = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrWalletTaken = fmt.Errorf("wallet address already registered: %w", ErrConflict)

	// Login failures
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrWalletNotRegistered = errors.New("wallet not registered")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrAccountDisabled     = errors.New("account is disabled")

	// Bearer credential failures
	ErrMissingCredential   = errors.New("no credential provided")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpiredCredential   = errors.New("credential expired")
	ErrInvalidCredential   = errors.New("invalid credential")
)

// ValidationError reports a single field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
