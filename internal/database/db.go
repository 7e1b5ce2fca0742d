package database

import (
	"errors"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names declared in migrations/00001_create_users.sql
const (
	ConstraintEmailUnique  = "users_email_key"
	ConstraintWalletUnique = "users_wallet_address_key"
)

const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
	pgStringTooLong    = "22001"
)

// MapPostgresError translates driver errors into model errors.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case ConstraintEmailUnique:
				return models.ErrEmailTaken
			case ConstraintWalletUnique:
				return models.ErrWalletTaken
			}
			return models.ErrConflict
		case pgNotNullViolation:
			return models.NewValidationError(pgErr.ColumnName, "is required")
		case pgCheckViolation, pgStringTooLong:
			return models.NewValidationError(pgErr.ColumnName, "is invalid")
		}
	}

	return err
}
