package models

import (
	"time"
)

// NoPasswordSentinel is stored as the password credential of wallet accounts.
// It is not a valid bcrypt hash, so no comparison against it can succeed.
const NoPasswordSentinel = "!wallet-identity"

type User struct {
	ID            int64
	Name          string
	Email         string
	PasswordHash  string  // NoPasswordSentinel for wallet accounts
	WalletAddress *string // NULL for password accounts
	IsActive      bool
	LoginCount    int64
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Scheme reports which identity scheme the record belongs to.
func (u *User) Scheme() Scheme {
	if u.WalletAddress != nil && *u.WalletAddress != "" {
		return SchemeWallet
	}
	return SchemePassword
}

// Identity returns the tagged identity variant for the record.
func (u *User) Identity() Identity {
	if u.Scheme() == SchemeWallet {
		return WalletIdentity{Address: *u.WalletAddress}
	}
	return PasswordIdentity{PasswordHash: u.PasswordHash}
}

// Wallet returns the wallet address or an empty string.
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}
