package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	// IPResolver picks the key; nil keys on the direct peer address.
	IPResolver *pkghttp.ClientIPResolver
}

// DefaultAuthRateLimit returns the limit for the public register and login
// endpoints
func DefaultAuthRateLimit(ipResolver *pkghttp.ClientIPResolver) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		IPResolver:        ipResolver,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP.
// Each call creates an independent counter, so routes that should share a
// budget must share the returned middleware.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return config.IPResolver.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many requests, please try again later")
		}),
	)
}
