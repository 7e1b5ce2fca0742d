package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/go-playground/validator/v10"
)

// Global validator instance (reused across all handlers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("wallet_address", func(fl validator.FieldLevel) bool {
		return models.IsWalletAddress(strings.TrimSpace(fl.Field().String()))
	})

	return v
}

// completeRequest is implemented by request types whose presence rules the
// services report with an endpoint-specific message.
type completeRequest interface {
	hasRequiredFields() bool
}

func present(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func (r PasswordRegisterRequest) hasRequiredFields() bool {
	return present(r.Username, r.Email, r.Password)
}

func (r PasswordLoginRequest) hasRequiredFields() bool {
	return present(r.Email, r.Password)
}

func (r WalletRegisterRequest) hasRequiredFields() bool {
	return present(r.Username, r.Email, r.WalletAddress)
}

func (r WalletLoginRequest) hasRequiredFields() bool {
	return present(r.WalletAddress)
}

// ValidateRequest validates a request struct using go-playground/validator.
// Format rules are only checked once every required field is present; an
// incomplete request passes through so the service reports what is missing.
func ValidateRequest(req any) error {
	if cr, ok := req.(completeRequest); ok && !cr.hasRequiredFields() {
		return nil
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return models.NewValidationError(fe.Field(), formatValidationError(fe))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Please provide a valid email"
	case "wallet_address":
		return "Invalid wallet address format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
}
