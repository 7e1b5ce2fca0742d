package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/BradenHooton/dualauth/internal/services"
	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
)

// maxBodyBytes caps JSON request bodies on the auth endpoints
const maxBodyBytes = 1 << 20

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	RegisterPassword(ctx context.Context, in services.PasswordRegistration) (*services.AuthResponse, error)
	LoginPassword(ctx context.Context, in services.PasswordLogin) (*services.AuthResponse, error)
	RegisterWallet(ctx context.Context, in services.WalletRegistration) (*services.AuthResponse, error)
	LoginWallet(ctx context.Context, in services.WalletLogin) (*services.AuthResponse, error)
}

// AuthHandler handles registration and login for both schemes
type AuthHandler struct {
	service    AuthServiceInterface
	ipResolver *pkghttp.ClientIPResolver
	observer   services.AuthObserver
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. A nil observer disables auth
// metrics.
func NewAuthHandler(service AuthServiceInterface, ipResolver *pkghttp.ClientIPResolver, observer services.AuthObserver, logger *slog.Logger) *AuthHandler {
	if observer == nil {
		observer = services.NoopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service:    service,
		ipResolver: ipResolver,
		observer:   observer,
		logger:     logger,
	}
}

// Request DTOs

// PasswordRegisterRequest represents the request body for password registration
type PasswordRegisterRequest struct {
	Username        string `json:"username" validate:"omitempty,min=2,max=50"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PasswordLoginRequest represents the request body for password login
type PasswordLoginRequest struct {
	Email      string `json:"email" validate:"omitempty,max=255"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// WalletRegisterRequest represents the request body for wallet registration.
// Signature, message, transactionHash and gasUsed are accepted as sent.
type WalletRegisterRequest struct {
	Username        string          `json:"username" validate:"omitempty,min=2,max=50"`
	Email           string          `json:"email" validate:"omitempty,email,max=255"`
	WalletAddress   string          `json:"walletAddress" validate:"omitempty,wallet_address"`
	Signature       string          `json:"signature"`
	Message         string          `json:"message"`
	TransactionHash string          `json:"transactionHash"`
	GasUsed         json.RawMessage `json:"gasUsed,omitempty"`
}

// WalletLoginRequest represents the request body for wallet login
type WalletLoginRequest struct {
	WalletAddress string `json:"walletAddress" validate:"omitempty,wallet_address"`
	Signature     string `json:"signature"`
	Message       string `json:"message"`
	SessionID     string `json:"sessionId"`
}

// AuthSuccessResponse is the body of a successful register or login
type AuthSuccessResponse struct {
	Success   bool                   `json:"success"`
	Message   string                 `json:"message"`
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expiresAt"`
	User      *services.UserResponse `json:"user"`
}

// RegisterPassword handles password-scheme registration
// @Summary Register with email and password
// @Accept json
// @Param request body PasswordRegisterRequest true "Register request"
// @Produce json
// @Success 201 {object} AuthSuccessResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/auth/traditional/register [post]
func (h *AuthHandler) RegisterPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req PasswordRegisterRequest
	if !h.decode(w, r, &req, "register", models.SchemePassword, start) {
		return
	}

	resp, err := h.service.RegisterPassword(r.Context(), services.PasswordRegistration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Client:          h.clientInfo(r),
	})
	h.respond(w, r, resp, err, "register", models.SchemePassword, start)
}

// LoginPassword handles password-scheme login
// @Summary Login with email and password
// @Accept json
// @Param request body PasswordLoginRequest true "Login request"
// @Produce json
// @Success 200 {object} AuthSuccessResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/auth/traditional/login [post]
func (h *AuthHandler) LoginPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req PasswordLoginRequest
	if !h.decode(w, r, &req, "login", models.SchemePassword, start) {
		return
	}

	resp, err := h.service.LoginPassword(r.Context(), services.PasswordLogin{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		Client:     h.clientInfo(r),
	})
	h.respond(w, r, resp, err, "login", models.SchemePassword, start)
}

// RegisterWallet handles wallet-scheme registration
// @Summary Register with a wallet address
// @Accept json
// @Param request body WalletRegisterRequest true "Register request"
// @Produce json
// @Success 201 {object} AuthSuccessResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/auth/blockchain/register [post]
func (h *AuthHandler) RegisterWallet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req WalletRegisterRequest
	if !h.decode(w, r, &req, "register", models.SchemeWallet, start) {
		return
	}

	resp, err := h.service.RegisterWallet(r.Context(), services.WalletRegistration{
		Username:        req.Username,
		Email:           req.Email,
		WalletAddress:   req.WalletAddress,
		Signature:       req.Signature,
		Message:         req.Message,
		TransactionHash: req.TransactionHash,
		Client:          h.clientInfo(r),
	})
	h.respond(w, r, resp, err, "register", models.SchemeWallet, start)
}

// LoginWallet handles wallet-scheme login
// @Summary Login with a wallet address
// @Accept json
// @Param request body WalletLoginRequest true "Login request"
// @Produce json
// @Success 200 {object} AuthSuccessResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/auth/blockchain/login [post]
func (h *AuthHandler) LoginWallet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req WalletLoginRequest
	if !h.decode(w, r, &req, "login", models.SchemeWallet, start) {
		return
	}

	resp, err := h.service.LoginWallet(r.Context(), services.WalletLogin{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
		Message:       req.Message,
		SessionID:     req.SessionID,
		Client:        h.clientInfo(r),
	})
	h.respond(w, r, resp, err, "login", models.SchemeWallet, start)
}

// decode reads and validates the JSON body into dst. On failure the error
// response has already been written.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any, op string, scheme models.Scheme, start time.Time) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		h.observe(r, op, scheme, "bad_request", start)
		return false
	}

	if err := ValidateRequest(dst); err != nil {
		outcome := writeServiceError(w, h.logger, err)
		h.observe(r, op, scheme, outcome, start)
		return false
	}
	return true
}

func (h *AuthHandler) respond(w http.ResponseWriter, r *http.Request, resp *services.AuthResponse, err error, op string, scheme models.Scheme, start time.Time) {
	if err != nil {
		outcome := writeServiceError(w, h.logger, err)
		h.observe(r, op, scheme, outcome, start)
		return
	}

	status := http.StatusOK
	if op == "register" {
		status = http.StatusCreated
	}

	pkghttp.WriteJSON(w, status, AuthSuccessResponse{
		Success:   true,
		Message:   successMessage(op, scheme),
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		User:      resp.User,
	})
	h.observe(r, op, scheme, "success", start)
}

func successMessage(op string, scheme models.Scheme) string {
	switch {
	case op == "register" && scheme == models.SchemePassword:
		return "Traditional registration successful"
	case op == "register":
		return "Blockchain registration successful"
	case scheme == models.SchemeWallet:
		return "Blockchain login successful"
	default:
		return "Login successful"
	}
}

func (h *AuthHandler) clientInfo(r *http.Request) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: h.ipResolver.ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

func (h *AuthHandler) observe(r *http.Request, op string, scheme models.Scheme, outcome string, start time.Time) {
	h.observer.ObserveAuth(r.Context(), services.AuthEvent{
		Operation: op,
		Scheme:    string(scheme),
		Outcome:   outcome,
		Duration:  time.Since(start),
	})
}

// writeServiceError maps service errors onto HTTP responses and returns the
// error code that was written.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) string {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		pkghttp.WriteValidationError(w, verr.Message)
		return "validation_error"
	case errors.Is(err, models.ErrPasswordMismatch):
		pkghttp.WriteValidationError(w, services.MsgPasswordsDoNotMatch)
		return "validation_error"
	case errors.Is(err, models.ErrEmailTaken):
		pkghttp.WriteConflict(w, services.MsgEmailTaken)
		return "conflict"
	case errors.Is(err, models.ErrWalletTaken):
		pkghttp.WriteConflict(w, services.MsgWalletTaken)
		return "conflict"
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "User already exists")
		return "conflict"
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteAuthenticationFailed(w, services.MsgInvalidCredentials)
		return "authentication_failed"
	case errors.Is(err, models.ErrWalletNotRegistered):
		pkghttp.WriteAuthenticationFailed(w, services.MsgWalletNotRegistered)
		return "authentication_failed"
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteAuthenticationFailed(w, services.MsgAccountDisabled)
		return "authentication_failed"
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
		return "not_found"
	default:
		if !errors.Is(err, models.ErrInternalServer) {
			logger.Error("unhandled service error", slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, "Server error")
		return "internal_error"
	}
}
