package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/dualauth/internal/models"
	"gorm.io/gorm"
)

// userRecord is the gorm mapping of the users table.
type userRecord struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	Name          string  `gorm:"size:50;not null"`
	Email         string  `gorm:"size:255;not null;uniqueIndex:users_email_key"`
	PasswordHash  string  `gorm:"not null"`
	WalletAddress *string `gorm:"size:42;uniqueIndex:users_wallet_address_key"`
	IsActive      bool    `gorm:"not null"`
	LoginCount    int64   `gorm:"not null"`
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userRecord) TableName() string { return "users" }

func (rec *userRecord) toModel() *models.User {
	return &models.User{
		ID:            rec.ID,
		Name:          rec.Name,
		Email:         rec.Email,
		PasswordHash:  rec.PasswordHash,
		WalletAddress: rec.WalletAddress,
		IsActive:      rec.IsActive,
		LoginCount:    rec.LoginCount,
		LastLoginAt:   rec.LastLoginAt,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func recordFromModel(u *models.User) *userRecord {
	return &userRecord{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		WalletAddress: u.WalletAddress,
		IsActive:      u.IsActive,
		LoginCount:    u.LoginCount,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// SQLiteUserRepository stores users in a single SQLite file through gorm.
type SQLiteUserRepository struct {
	db *gorm.DB
}

func NewSQLiteUserRepository(db *gorm.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Migrate creates or updates the users table.
func (r *SQLiteUserRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&userRecord{}); err != nil {
		return fmt.Errorf("auto-migrate users: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return rec.toModel(), nil
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", NormalizeEmail(email))
}

func (r *SQLiteUserRepository) GetByWallet(ctx context.Context, address string) (*models.User, error) {
	return r.first(ctx, "wallet_address = ?", NormalizeWallet(address))
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := prepareUser(user); err != nil {
		return nil, err
	}

	rec := recordFromModel(user)
	rec.ID = 0
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	// no column defaults on the record, so zero values such as is_active=false are written as given
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, mapSQLiteError(err)
	}
	return rec.toModel(), nil
}

func (r *SQLiteUserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := prepareUser(user); err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", user.ID).Updates(map[string]any{
		"name":           user.Name,
		"email":          user.Email,
		"password_hash":  user.PasswordHash,
		"wallet_address": user.WalletAddress,
		"is_active":      user.IsActive,
		"login_count":    user.LoginCount,
		"last_login_at":  user.LastLoginAt,
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, mapSQLiteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetByID(ctx, user.ID)
}

func (r *SQLiteUserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) (*models.User, error) {
	at = at.UTC()
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(map[string]any{
		"login_count":   gorm.Expr("login_count + 1"),
		"last_login_at": at,
		"updated_at":    at,
	})
	if res.Error != nil {
		return nil, mapSQLiteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteUserRepository) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// mapSQLiteError translates gorm/sqlite errors into model errors. The sqlite
// driver reports unique violations as "UNIQUE constraint failed: users.<column>".
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "users.email"):
			return models.ErrEmailTaken
		case strings.Contains(msg, "users.wallet_address"):
			return models.ErrWalletTaken
		}
		return models.ErrConflict
	}
	if strings.Contains(msg, "NOT NULL constraint failed") {
		return models.NewValidationError("", "Missing required field")
	}
	return err
}
