package repositories

import (
	"errors"
	"strings"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("wallet_address", func(fl validator.FieldLevel) bool {
		return models.IsWalletAddress(fl.Field().String())
	})
	return v
}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeWallet trims and lower-cases a wallet address for storage and lookup.
func NormalizeWallet(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

type userFields struct {
	Name          string  `validate:"required,min=2,max=50"`
	Email         string  `validate:"required,email,max=255"`
	PasswordHash  string  `validate:"required"`
	WalletAddress *string `validate:"omitempty,wallet_address"`
}

var fieldMessages = map[string]string{
	"Name.required":                "Username is required",
	"Name.min":                     "Username must be between 2 and 50 characters",
	"Name.max":                     "Username must be between 2 and 50 characters",
	"Email.required":               "Email is required",
	"Email.email":                  "Please provide a valid email",
	"Email.max":                    "Email must be at most 255 characters",
	"PasswordHash.required":        "Password credential is required",
	"WalletAddress.wallet_address": "Invalid wallet address format",
}

var fieldNames = map[string]string{
	"Name":          "username",
	"Email":         "email",
	"PasswordHash":  "password",
	"WalletAddress": "walletAddress",
}

// validateUser checks the invariants every stored user must satisfy.
// It runs before any write so an invalid record never reaches the table.
func validateUser(u *models.User) error {
	fields := userFields{
		Name:          strings.TrimSpace(u.Name),
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		WalletAddress: u.WalletAddress,
	}

	err := validate.Struct(fields)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("", "Invalid user data")
	}

	first := verrs[0]
	msg, ok := fieldMessages[first.Field()+"."+first.Tag()]
	if !ok {
		msg = "Invalid value"
	}
	return models.NewValidationError(fieldNames[first.Field()], msg)
}

// prepareUser normalizes identifiers in place and validates the result.
func prepareUser(u *models.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.WalletAddress != nil {
		w := NormalizeWallet(*u.WalletAddress)
		if w == "" {
			u.WalletAddress = nil
		} else {
			u.WalletAddress = &w
		}
	}
	return validateUser(u)
}
