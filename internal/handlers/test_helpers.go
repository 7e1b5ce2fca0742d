package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/BradenHooton/dualauth/internal/auth"
	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/BradenHooton/dualauth/internal/services"
	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds password-scheme claims to the request context
func WithAuthContext(req *http.Request, userID int64, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Scheme: models.SchemePassword,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithWalletAuthContext adds wallet-scheme claims to the request context
func WithWalletAuthContext(req *http.Request, userID int64, email, wallet string) *http.Request {
	claims := &models.TokenClaims{
		UserID:        userID,
		Email:         email,
		Scheme:        models.SchemeWallet,
		WalletAddress: wallet,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response and
// returns its message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) string {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.False(t, resp.Success)
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp.Message
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterPasswordFunc func(ctx context.Context, in services.PasswordRegistration) (*services.AuthResponse, error)
	LoginPasswordFunc    func(ctx context.Context, in services.PasswordLogin) (*services.AuthResponse, error)
	RegisterWalletFunc   func(ctx context.Context, in services.WalletRegistration) (*services.AuthResponse, error)
	LoginWalletFunc      func(ctx context.Context, in services.WalletLogin) (*services.AuthResponse, error)
}

func (m *MockAuthService) RegisterPassword(ctx context.Context, in services.PasswordRegistration) (*services.AuthResponse, error) {
	if m.RegisterPasswordFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterPasswordFunc(ctx, in)
}

func (m *MockAuthService) LoginPassword(ctx context.Context, in services.PasswordLogin) (*services.AuthResponse, error) {
	if m.LoginPasswordFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginPasswordFunc(ctx, in)
}

func (m *MockAuthService) RegisterWallet(ctx context.Context, in services.WalletRegistration) (*services.AuthResponse, error) {
	if m.RegisterWalletFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterWalletFunc(ctx, in)
}

func (m *MockAuthService) LoginWallet(ctx context.Context, in services.WalletLogin) (*services.AuthResponse, error) {
	if m.LoginWalletFunc == nil {
		return nil, models.ErrWalletNotRegistered
	}
	return m.LoginWalletFunc(ctx, in)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetProfileFunc func(ctx context.Context, id int64) (*services.UserResponse, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, id int64) (*services.UserResponse, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, id)
}

// RecordingObserver collects auth events for assertions
type RecordingObserver struct {
	mu     sync.Mutex
	Events []services.AuthEvent
}

func (o *RecordingObserver) ObserveAuth(_ context.Context, event services.AuthEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Events = append(o.Events, event)
}

func (o *RecordingObserver) Last() services.AuthEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Events) == 0 {
		return services.AuthEvent{}
	}
	return o.Events[len(o.Events)-1]
}
