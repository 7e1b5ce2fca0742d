package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/dualauth/internal/auth"
	"github.com/BradenHooton/dualauth/internal/models"
	pkgauth "github.com/BradenHooton/dualauth/pkg/auth"
	pkglogger "github.com/BradenHooton/dualauth/pkg/logger"
)

// Client-facing messages. The two password-login failures share one message
// so a caller cannot tell an unknown email from a wrong password.
const (
	MsgPasswordFieldsRequired = "Username, email, and password are required"
	MsgLoginFieldsRequired    = "Email and password are required"
	MsgWalletFieldsRequired   = "Username, email, and wallet address are required"
	MsgWalletRequired         = "Wallet address is required for blockchain authentication"
	MsgPasswordsDoNotMatch    = "Passwords do not match"
	MsgEmailTaken             = "User already exists with this email"
	MsgWalletTaken            = "This wallet address is already registered"
	MsgInvalidCredentials     = "Invalid email or password"
	MsgWalletNotRegistered    = "Wallet not registered. Please register first."
	MsgAccountDisabled        = "Account is disabled"
	MsgInvalidWallet          = "Invalid wallet address format"
)

// PasswordHasher is satisfied by *pkgauth.Hasher
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
	CompareDummy(ctx context.Context, password string)
}

// TokenIssuer is satisfied by *auth.TokenManager
type TokenIssuer interface {
	IssueToken(user *models.User, ttl time.Duration) (string, time.Time, error)
	TTLFor(rememberMe bool) time.Duration
}

// AuthResponse represents the response from register and login operations
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

// ClientInfo carries request metadata for audit records
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type PasswordRegistration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Client          ClientInfo
}

type PasswordLogin struct {
	Email      string
	Password   string
	RememberMe bool
	Client     ClientInfo
}

// WalletRegistration carries the wallet fields sent by the client. Signature,
// Message and TransactionHash are recorded as present or absent but are not
// cryptographically verified.
type WalletRegistration struct {
	Username        string
	Email           string
	WalletAddress   string
	Signature       string
	Message         string
	TransactionHash string
	Client          ClientInfo
}

type WalletLogin struct {
	WalletAddress string
	Signature     string
	Message       string
	SessionID     string
	Client        ClientInfo
}

type AuthOptions struct {
	// TrackPasswordLogins also bumps loginCount/lastLoginAt on password logins.
	// Wallet logins are always tracked.
	TrackPasswordLogins bool
}

// AuthService handles registration and login for both identity schemes
type AuthService struct {
	repo        UserRepository
	tm          TokenIssuer
	hasher      PasswordHasher
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	opts        AuthOptions
	now         func() time.Time
}

func NewAuthService(repo UserRepository, tm TokenIssuer, hasher PasswordHasher, timing *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, opts AuthOptions) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		hasher:      hasher,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		opts:        opts,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeWallet(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// =============================================================================
// Password scheme
// =============================================================================

// RegisterPassword creates a password account and returns a session token.
func (s *AuthService) RegisterPassword(ctx context.Context, in PasswordRegistration) (*AuthResponse, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if username == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("", MsgPasswordFieldsRequired)
	}
	if in.Password != in.ConfirmPassword {
		return nil, models.ErrPasswordMismatch
	}
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError("password", err.Error())
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		s.auditRegister(ctx, models.SchemePassword, email, "", in.Client, 0, err)
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.createUser(ctx, &models.User{
		Name:         username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		s.auditRegister(ctx, models.SchemePassword, email, "", in.Client, 0, err)
		return nil, err
	}

	resp, err := s.issue(user, s.tm.TTLFor(false))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("scheme", string(models.SchemePassword)))
	s.auditRegister(ctx, models.SchemePassword, email, "", in.Client, user.ID, nil)
	return resp, nil
}

// LoginPassword authenticates by email and password. Every failure that
// depends on account state returns models.ErrInvalidCredentials.
func (s *AuthService) LoginPassword(ctx context.Context, in PasswordLogin) (resp *AuthResponse, err error) {
	start := s.now()
	defer func() {
		s.timing.WaitFrom(ctx, start, err == nil)
	}()

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("", MsgLoginFieldsRequired)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to get user by email", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.hasher.CompareDummy(ctx, in.Password)
		s.auditLogin(ctx, models.SchemePassword, email, "", in.Client, 0, "invalid_credentials")
		return nil, models.ErrInvalidCredentials
	}

	// wallet accounts hold no password; spend the same work and fail the same way
	if user.Scheme() != models.SchemePassword {
		s.hasher.CompareDummy(ctx, in.Password)
		s.auditLogin(ctx, models.SchemePassword, email, "", in.Client, user.ID, "wallet_account")
		return nil, models.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, pkgauth.ErrMismatchedPassword) {
			s.logger.Error("password comparison failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.auditLogin(ctx, models.SchemePassword, email, "", in.Client, user.ID, "invalid_credentials")
		return nil, models.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.auditLogin(ctx, models.SchemePassword, email, "", in.Client, user.ID, "account_disabled")
		return nil, models.ErrInvalidCredentials
	}

	if s.opts.TrackPasswordLogins {
		user, err = s.recordLogin(ctx, user)
		if err != nil {
			return nil, err
		}
	}

	resp, err = s.issue(user, s.tm.TTLFor(in.RememberMe))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("scheme", string(models.SchemePassword)),
		slog.Bool("remember_me", in.RememberMe),
	)
	s.auditLogin(ctx, models.SchemePassword, email, "", in.Client, user.ID, "")
	return resp, nil
}

// =============================================================================
// Wallet scheme
// =============================================================================

// RegisterWallet creates a wallet account bound to the given address.
func (s *AuthService) RegisterWallet(ctx context.Context, in WalletRegistration) (*AuthResponse, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	wallet := normalizeWallet(in.WalletAddress)

	if username == "" || email == "" || wallet == "" {
		return nil, models.NewValidationError("", MsgWalletFieldsRequired)
	}
	if !models.IsWalletAddress(wallet) {
		return nil, models.NewValidationError("walletAddress", MsgInvalidWallet)
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		s.auditRegister(ctx, models.SchemeWallet, email, wallet, in.Client, 0, err)
		return nil, err
	}
	if err := s.ensureWalletFree(ctx, wallet); err != nil {
		s.auditRegister(ctx, models.SchemeWallet, email, wallet, in.Client, 0, err)
		return nil, err
	}

	user, err := s.createUser(ctx, &models.User{
		Name:          username,
		Email:         email,
		PasswordHash:  models.NoPasswordSentinel,
		WalletAddress: &wallet,
		IsActive:      true,
		LoginCount:    0,
	})
	if err != nil {
		s.auditRegister(ctx, models.SchemeWallet, email, wallet, in.Client, 0, err)
		return nil, err
	}

	resp, err := s.issue(user, s.tm.TTLFor(false))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("scheme", string(models.SchemeWallet)))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "register",
		Scheme:        string(models.SchemeWallet),
		UserID:        user.ID,
		Email:         email,
		WalletAddress: wallet,
		IPAddress:     in.Client.IPAddress,
		UserAgent:     in.Client.UserAgent,
		Success:       true,
		Metadata: map[string]string{
			"signature_present":        presence(in.Signature),
			"transaction_hash_present": presence(in.TransactionHash),
		},
	})
	return resp, nil
}

// LoginWallet authenticates by wallet address alone and records the login.
func (s *AuthService) LoginWallet(ctx context.Context, in WalletLogin) (*AuthResponse, error) {
	wallet := normalizeWallet(in.WalletAddress)
	if wallet == "" {
		return nil, models.NewValidationError("", MsgWalletRequired)
	}
	if !models.IsWalletAddress(wallet) {
		return nil, models.NewValidationError("walletAddress", MsgInvalidWallet)
	}

	user, err := s.repo.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogin(ctx, models.SchemeWallet, "", wallet, in.Client, 0, "wallet_not_registered")
			return nil, models.ErrWalletNotRegistered
		}
		s.logger.Error("failed to get user by wallet", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsActive {
		s.auditLogin(ctx, models.SchemeWallet, "", wallet, in.Client, user.ID, "account_disabled")
		return nil, models.ErrAccountDisabled
	}

	user, err = s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	resp, err := s.issue(user, s.tm.TTLFor(false))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("scheme", string(models.SchemeWallet)),
		slog.Int64("login_count", user.LoginCount),
	)
	s.auditLogin(ctx, models.SchemeWallet, "", wallet, in.Client, user.ID, "")
	return resp, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return models.ErrEmailTaken
	case errors.Is(err, models.ErrNotFound):
		return nil
	default:
		s.logger.Error("failed to check email", slog.Any("error", err))
		return models.ErrInternalServer
	}
}

func (s *AuthService) ensureWalletFree(ctx context.Context, wallet string) error {
	_, err := s.repo.GetByWallet(ctx, wallet)
	switch {
	case err == nil:
		return models.ErrWalletTaken
	case errors.Is(err, models.ErrNotFound):
		return nil
	default:
		s.logger.Error("failed to check wallet", slog.Any("error", err))
		return models.ErrInternalServer
	}
}

// createUser inserts the record. The store's unique constraints settle races
// that slip past the pre-checks.
func (s *AuthService) createUser(ctx context.Context, user *models.User) (*models.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err == nil {
		return created, nil
	}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return nil, verr
	case errors.Is(err, models.ErrEmailTaken), errors.Is(err, models.ErrWalletTaken):
		return nil, err
	case errors.Is(err, models.ErrConflict):
		return nil, models.ErrConflict
	default:
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
}

func (s *AuthService) recordLogin(ctx context.Context, user *models.User) (*models.User, error) {
	updated, err := s.repo.RecordLogin(ctx, user.ID, s.now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to record login", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

func (s *AuthService) issue(user *models.User, ttl time.Duration) (*AuthResponse, error) {
	token, expiresAt, err := s.tm.IssueToken(user, ttl)
	if err != nil {
		s.logger.Error("failed to issue token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userModelToResponse(user),
	}, nil
}

func (s *AuthService) auditRegister(ctx context.Context, scheme models.Scheme, email, wallet string, client ClientInfo, userID int64, err error) {
	event := pkglogger.AuditEvent{
		EventType:     "register",
		Scheme:        string(scheme),
		UserID:        userID,
		Email:         email,
		WalletAddress: wallet,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Success:       err == nil,
	}
	switch {
	case err == nil:
	case errors.Is(err, models.ErrEmailTaken):
		event.FailureReason = "email_taken"
	case errors.Is(err, models.ErrWalletTaken):
		event.FailureReason = "wallet_taken"
	case errors.Is(err, models.ErrValidation):
		event.FailureReason = "validation"
	default:
		event.FailureReason = "internal"
	}
	s.auditLogger.LogAuthAttempt(ctx, event)
}

func (s *AuthService) auditLogin(ctx context.Context, scheme models.Scheme, email, wallet string, client ClientInfo, userID int64, failure string) {
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login",
		Scheme:        string(scheme),
		UserID:        userID,
		Email:         email,
		WalletAddress: wallet,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Success:       failure == "",
		FailureReason: failure,
	})
}

func presence(v string) string {
	if strings.TrimSpace(v) == "" {
		return "false"
	}
	return "true"
}
