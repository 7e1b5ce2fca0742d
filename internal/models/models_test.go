package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestUser_SchemeDerivedFromWallet(t *testing.T) {
	pw := &User{Email: "a@example.com", PasswordHash: "hash"}
	assert.Equal(t, SchemePassword, pw.Scheme())
	assert.Equal(t, "", pw.Wallet())
	assert.Equal(t, PasswordIdentity{PasswordHash: "hash"}, pw.Identity())

	empty := ""
	pw.WalletAddress = &empty
	assert.Equal(t, SchemePassword, pw.Scheme())

	addr := "0x" + strings.Repeat("1", 40)
	wl := &User{Email: "b@example.com", PasswordHash: NoPasswordSentinel, WalletAddress: &addr}
	assert.Equal(t, SchemeWallet, wl.Scheme())
	assert.Equal(t, WalletIdentity{Address: addr}, wl.Identity())
	assert.Equal(t, SchemeWallet, wl.Identity().Scheme())
}

func TestScheme_Names(t *testing.T) {
	assert.Equal(t, "password", string(SchemePassword))
	assert.Equal(t, "wallet", string(SchemeWallet))
	assert.False(t, Scheme("traditional").Valid())
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("wallet")
	assert.NoError(t, err)
	assert.Equal(t, SchemeWallet, s)

	_, err = ParseScheme("traditional")
	assert.Error(t, err)
}

func TestIsWalletAddress(t *testing.T) {
	assert.True(t, IsWalletAddress("0x"+strings.Repeat("aF", 20)))
	assert.False(t, IsWalletAddress("0x"+strings.Repeat("a", 39)))
	assert.False(t, IsWalletAddress("0x"+strings.Repeat("a", 41)))
	assert.False(t, IsWalletAddress("0x"+strings.Repeat("g", 40)))
	assert.False(t, IsWalletAddress(strings.Repeat("a", 42)))
}

func TestErrorHierarchy(t *testing.T) {
	assert.True(t, errors.Is(ErrEmailTaken, ErrConflict))
	assert.True(t, errors.Is(ErrWalletTaken, ErrConflict))
	assert.False(t, errors.Is(ErrEmailTaken, ErrWalletTaken))

	verr := NewValidationError("email", "Please provide a valid email")
	assert.ErrorIs(t, verr, ErrValidation)
	assert.Equal(t, "email: Please provide a valid email", verr.Error())
	assert.Equal(t, "bare", NewValidationError("", "bare").Error())
}

func TestTokenClaims_Validate(t *testing.T) {
	addr := "0x" + strings.Repeat("2", 40)
	tests := []struct {
		name    string
		claims  TokenClaims
		wantErr bool
	}{
		{"password ok", TokenClaims{UserID: 1, Scheme: SchemePassword}, false},
		{"wallet ok", TokenClaims{UserID: 1, Scheme: SchemeWallet, WalletAddress: addr}, false},
		{"zero user", TokenClaims{Scheme: SchemePassword}, true},
		{"bad scheme", TokenClaims{UserID: 1, Scheme: "x"}, true},
		{"wallet without address", TokenClaims{UserID: 1, Scheme: SchemeWallet}, true},
		{"password with address", TokenClaims{UserID: 1, Scheme: SchemePassword, WalletAddress: addr}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.claims.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	var _ jwt.ClaimsValidator = TokenClaims{}
}
