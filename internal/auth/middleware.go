package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/dualauth/internal/models"
	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing token claims in context
	UserContextKey contextKey = "user"
)

// Client-facing messages for each verification outcome
const (
	MsgMissingCredential   = "No token provided, authorization denied"
	MsgMalformedCredential = "Invalid token format"
	MsgExpiredCredential   = "Token expired"
	MsgInvalidCredential   = "Invalid token"
	MsgVerificationFailure = "Server error in authentication"
)

// TokenValidator is satisfied by *TokenManager
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware validates the bearer token and injects its claims into the
// request context. It never touches the user store.
func AuthMiddleware(tv TokenValidator, logger *slog.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifyRequest(tv, r)
			if err != nil {
				writeCredentialError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// verifyRequest converts a panic inside token validation into an error so
// the caller answers 500 instead of dropping the connection.
func verifyRequest(tv TokenValidator, r *http.Request) (claims *models.TokenClaims, err error) {
	defer func() {
		if p := recover(); p != nil {
			claims, err = nil, errVerificationPanic{value: p}
		}
	}()

	tokenString, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return tv.ValidateToken(tokenString)
}

type errVerificationPanic struct{ value any }

func (e errVerificationPanic) Error() string {
	return fmt.Sprintf("panic during token verification: %v", e.value)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", models.ErrMissingCredential
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", models.ErrMalformedCredential
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", models.ErrMissingCredential
	}
	if strings.ContainsAny(token, " \t") {
		return "", models.ErrMalformedCredential
	}
	return token, nil
}

func writeCredentialError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrMissingCredential):
		pkghttp.WriteUnauthorized(w, "missing_token", MsgMissingCredential)
	case errors.Is(err, models.ErrMalformedCredential):
		pkghttp.WriteUnauthorized(w, "malformed_token", MsgMalformedCredential)
	case errors.Is(err, models.ErrExpiredCredential):
		pkghttp.WriteUnauthorized(w, "token_expired", MsgExpiredCredential)
	case errors.Is(err, models.ErrInvalidCredential):
		logger.Debug("token rejected",
			slog.String("path", r.URL.Path),
			slog.String("reason", err.Error()),
		)
		pkghttp.WriteUnauthorized(w, "invalid_token", MsgInvalidCredential)
	default:
		logger.Error("token verification failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		pkghttp.WriteInternalError(w, MsgVerificationFailure)
	}
}

// GetUserFromContext extracts token claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	return ClaimsFromContext(r.Context())
}

func ClaimsFromContext(ctx context.Context) *models.TokenClaims {
	claims, ok := ctx.Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
