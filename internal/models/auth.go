package models

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	UserID        int64  `json:"userId"`
	Email         string `json:"email"`
	Scheme        Scheme `json:"scheme"`
	WalletAddress string `json:"walletAddress,omitempty"`
	jwt.RegisteredClaims
}

// Validate is called by the jwt parser after the registered claims pass.
func (c TokenClaims) Validate() error {
	if c.UserID <= 0 {
		return errors.New("missing user id")
	}
	if !c.Scheme.Valid() {
		return errors.New("unknown scheme")
	}
	if c.Scheme == SchemeWallet && c.WalletAddress == "" {
		return errors.New("wallet scheme without wallet address")
	}
	if c.Scheme == SchemePassword && c.WalletAddress != "" {
		return errors.New("password scheme with wallet address")
	}
	return nil
}
