package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/dualauth/internal/database"
	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, wallet_address, is_active, login_count, last_login_at, created_at, updated_at`

// UserRepository stores users in PostgreSQL.
type UserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, pool: db.Pool}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.WalletAddress,
		&user.IsActive, &user.LoginCount, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, NormalizeEmail(email)))
}

func (r *UserRepository) GetByWallet(ctx context.Context, address string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, NormalizeWallet(address)))
}

// Create inserts a new user. Uniqueness is enforced by the table constraints,
// so concurrent registrations of the same email or wallet yield exactly one row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := prepareUser(user); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO users (name, email, password_hash, wallet_address, is_active, login_count, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.WalletAddress,
		user.IsActive, user.LoginCount, user.LastLoginAt, now,
	))
}

// Save persists the mutable fields of an existing user.
func (r *UserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := prepareUser(user); err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, wallet_address = $4,
		    is_active = $5, login_count = $6, last_login_at = $7, updated_at = $8
		WHERE id = $9
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.WalletAddress,
		user.IsActive, user.LoginCount, user.LastLoginAt, time.Now().UTC(), user.ID,
	))
}

// RecordLogin increments the login counter in a single statement.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET login_count = login_count + 1, last_login_at = $1, updated_at = $1
		WHERE id = $2
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, at.UTC(), id))
}

func (r *UserRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
