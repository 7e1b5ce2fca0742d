package models

import (
	"fmt"
	"regexp"
)

var walletAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsWalletAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsWalletAddress(s string) bool {
	return walletAddressPattern.MatchString(s)
}

// Scheme identifies how a user authenticates.
type Scheme string

const (
	SchemePassword Scheme = "password"
	SchemeWallet   Scheme = "wallet"
)

func (s Scheme) Valid() bool {
	return s == SchemePassword || s == SchemeWallet
}

func ParseScheme(v string) (Scheme, error) {
	s := Scheme(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown scheme %q", v)
	}
	return s, nil
}

// Identity is implemented by PasswordIdentity and WalletIdentity.
type Identity interface {
	Scheme() Scheme
	isIdentity()
}

type PasswordIdentity struct {
	PasswordHash string
}

func (PasswordIdentity) Scheme() Scheme { return SchemePassword }
func (PasswordIdentity) isIdentity()    {}

type WalletIdentity struct {
	Address string
}

func (WalletIdentity) Scheme() Scheme { return SchemeWallet }
func (WalletIdentity) isIdentity()    {}
