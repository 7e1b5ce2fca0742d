package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/dualauth/internal/auth"
	"github.com/BradenHooton/dualauth/internal/services"
	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetProfile(ctx context.Context, id int64) (*services.UserResponse, error)
}

// UserHandler serves the token-protected user endpoints
type UserHandler struct {
	service  UserService
	observer services.AuthObserver
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, observer services.AuthObserver, logger *slog.Logger) *UserHandler {
	if observer == nil {
		observer = services.NoopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		service:  service,
		observer: observer,
		logger:   logger,
	}
}

// ProfileResponse is the body of GET /profile
type ProfileResponse struct {
	Success bool                   `json:"success"`
	User    *services.UserResponse `json:"user"`
	Type    string                 `json:"type"`
}

// VerifyResponse is the body of GET /verify
type VerifyResponse struct {
	Success bool                   `json:"success"`
	Valid   bool                   `json:"valid"`
	User    *services.UserResponse `json:"user"`
}

// Profile returns the authenticated user
//
// @Summary Current user profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/auth/profile [get]
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	user, ok := h.loadUser(w, r, "profile", start)
	if !ok {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		User:    user,
		Type:    user.Type,
	})
	h.observe(r, "profile", "success", start)
}

// Verify confirms the bearer token still names an existing user
//
// @Summary Verify token
// @Security BearerAuth
// @Produce json
// @Success 200 {object} VerifyResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/auth/verify [get]
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	user, ok := h.loadUser(w, r, "verify", start)
	if !ok {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VerifyResponse{
		Success: true,
		Valid:   true,
		User:    user,
	})
	h.observe(r, "verify", "success", start)
}

func (h *UserHandler) loadUser(w http.ResponseWriter, r *http.Request, op string, start time.Time) (*services.UserResponse, bool) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		// only reachable when the route is mounted without the verifier
		pkghttp.WriteUnauthorized(w, "missing_token", auth.MsgMissingCredential)
		h.observe(r, op, "missing_token", start)
		return nil, false
	}

	user, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		outcome := writeServiceError(w, h.logger, err)
		h.observe(r, op, outcome, start)
		return nil, false
	}
	return user, true
}

func (h *UserHandler) observe(r *http.Request, op, outcome string, start time.Time) {
	scheme := ""
	if claims := auth.GetUserFromContext(r); claims != nil {
		scheme = string(claims.Scheme)
	}
	h.observer.ObserveAuth(r.Context(), services.AuthEvent{
		Operation: op,
		Scheme:    scheme,
		Outcome:   outcome,
		Duration:  time.Since(start),
	})
}
