package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and validates HS256 session tokens
type TokenManager struct {
	secret        []byte
	issuer        string
	defaultTTL    time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
}

func NewTokenManager(secret, issuer string, defaultTTL, rememberMeTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		issuer:        issuer,
		defaultTTL:    defaultTTL,
		rememberMeTTL: rememberMeTTL,
		now:           time.Now,
	}
}

func (tm *TokenManager) DefaultTTL() time.Duration    { return tm.defaultTTL }
func (tm *TokenManager) RememberMeTTL() time.Duration { return tm.rememberMeTTL }

// TTLFor picks the lifetime for a login.
func (tm *TokenManager) TTLFor(rememberMe bool) time.Duration {
	if rememberMe {
		return tm.rememberMeTTL
	}
	return tm.defaultTTL
}

// IssueToken signs a token for user. The scheme and wallet claims are
// derived from the record, so a password account can never receive a
// wallet-scheme token.
func (tm *TokenManager) IssueToken(user *models.User, ttl time.Duration) (string, time.Time, error) {
	if user == nil || user.ID <= 0 {
		return "", time.Time{}, fmt.Errorf("cannot issue token for unsaved user")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive")
	}

	now := tm.now()
	expiresAt := now.Add(ttl)

	claims := &models.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Scheme: user.Scheme(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if claims.Scheme == models.SchemeWallet {
		claims.WalletAddress = user.Wallet()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt.Truncate(time.Second), nil
}

// ValidateToken verifies signature and expiry and returns the claims.
// Errors are models.ErrExpiredCredential or models.ErrInvalidCredential,
// wrapping the parser's reason. Once a value has been presented as a bearer
// token, any defect in its content is an invalid token.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		// the parser checks the signature before expiry, so an expired
		// result always belongs to a genuine token
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", models.ErrExpiredCredential, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidCredential, err)
	}

	if !token.Valid {
		return nil, models.ErrInvalidCredential
	}

	return claims, nil
}
