package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/dualauth/internal/handlers"
	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/BradenHooton/dualauth/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestProfile_Success(t *testing.T) {
	mockService := &handlers.MockUserService{
		GetProfileFunc: func(ctx context.Context, id int64) (*services.UserResponse, error) {
			assert.Equal(t, int64(5), id)
			return &services.UserResponse{ID: 5, Username: "Alice", Email: "a@b.com", Type: "password"}, nil
		},
	}
	observer := &handlers.RecordingObserver{}

	handler := handlers.NewUserHandler(mockService, observer, nil)
	req := handlers.NewTestRequest(t, "GET", "/api/auth/profile", nil)
	req = handlers.WithAuthContext(req, 5, "a@b.com")

	w := httptest.NewRecorder()
	handler.Profile(w, req)

	var resp handlers.ProfileResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "password", resp.Type)
	assert.Equal(t, "Alice", resp.User.Username)
	assert.Equal(t, "profile", observer.Last().Operation)
	assert.Equal(t, "password", observer.Last().Scheme)
}

func TestProfile_WalletUser(t *testing.T) {
	wallet := "0xa1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	mockService := &handlers.MockUserService{
		GetProfileFunc: func(ctx context.Context, id int64) (*services.UserResponse, error) {
			return &services.UserResponse{ID: id, WalletAddress: &wallet, Type: "wallet"}, nil
		},
	}

	handler := handlers.NewUserHandler(mockService, nil, nil)
	req := handlers.NewTestRequest(t, "GET", "/api/auth/profile", nil)
	req = handlers.WithWalletAuthContext(req, 8, "w@b.com", wallet)

	w := httptest.NewRecorder()
	handler.Profile(w, req)

	var resp handlers.ProfileResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "wallet", resp.Type)
}

func TestProfile_UserVanished(t *testing.T) {
	mockService := &handlers.MockUserService{
		GetProfileFunc: func(ctx context.Context, id int64) (*services.UserResponse, error) {
			return nil, models.ErrNotFound
		},
	}

	handler := handlers.NewUserHandler(mockService, nil, nil)
	req := handlers.NewTestRequest(t, "GET", "/api/auth/profile", nil)
	req = handlers.WithAuthContext(req, 5, "a@b.com")

	w := httptest.NewRecorder()
	handler.Profile(w, req)

	msg := handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	assert.Equal(t, "User not found", msg)
}

func TestProfile_NoClaims(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{}, nil, nil)
	req := handlers.NewTestRequest(t, "GET", "/api/auth/profile", nil)

	w := httptest.NewRecorder()
	handler.Profile(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "missing_token")
}

func TestVerify_Success(t *testing.T) {
	mockService := &handlers.MockUserService{
		GetProfileFunc: func(ctx context.Context, id int64) (*services.UserResponse, error) {
			return &services.UserResponse{ID: id, Email: "a@b.com", Type: "password"}, nil
		},
	}

	handler := handlers.NewUserHandler(mockService, nil, nil)
	req := handlers.NewTestRequest(t, "GET", "/api/auth/verify", nil)
	req = handlers.WithAuthContext(req, 5, "a@b.com")

	w := httptest.NewRecorder()
	handler.Verify(w, req)

	var resp handlers.VerifyResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.Valid)
	assert.Equal(t, int64(5), resp.User.ID)
}

func TestVerify_InternalError(t *testing.T) {
	mockService := &handlers.MockUserService{
		GetProfileFunc: func(ctx context.Context, id int64) (*services.UserResponse, error) {
			return nil, models.ErrInternalServer
		},
	}

	handler := handlers.NewUserHandler(mockService, nil, nil)
	req := handlers.NewTestRequest(t, "GET", "/api/auth/verify", nil)
	req = handlers.WithAuthContext(req, 5, "a@b.com")

	w := httptest.NewRecorder()
	handler.Verify(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
}
