package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/dualauth/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByWallet(ctx context.Context, address string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) (*models.User, error)
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	WalletAddress *string    `json:"walletAddress"`
	Type          string     `json:"type"`
	IsActive      bool       `json:"isActive"`
	LoginCount    int64      `json:"loginCount"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// userModelToResponse converts a stored user into its public form. The
// password credential has no counterpart here and can never be serialized.
func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Username:      user.Name,
		Email:         user.Email,
		WalletAddress: user.WalletAddress,
		Type:          string(user.Scheme()),
		IsActive:      user.IsActive,
		LoginCount:    user.LoginCount,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// UserService serves the authenticated views of a user
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// GetProfile loads the user named by verified token claims.
func (s *UserService) GetProfile(ctx context.Context, id int64) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("token refers to missing user", slog.Int64("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}
