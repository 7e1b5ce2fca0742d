package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest("POST", "/api/auth/traditional/login", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitByIP_Returns429AfterLimit(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 3})(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("192.168.1.1:8080"))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("192.168.1.1:8080"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "rate_limit_exceeded", body.Error)
}

func TestRateLimitByIP_IsolatesClients(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitByIP_UsesForwardedForBehindTrustedProxy(t *testing.T) {
	resolver := pkghttp.NewClientIPResolver([]string{"10.0.0.0/8"})
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1, IPResolver: resolver})(okHandler())

	first := requestFrom("10.0.0.5:1000")
	first.Header.Set("X-Forwarded-For", "203.0.113.1")
	second := requestFrom("10.0.0.5:1000")
	second.Header.Set("X-Forwarded-For", "203.0.113.2")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	assert.Equal(t, http.StatusOK, w.Code, "distinct clients behind one proxy have separate budgets")
}
