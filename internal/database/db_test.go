package database

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound},
		{"email unique", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintEmailUnique}, models.ErrEmailTaken},
		{"wallet unique", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintWalletUnique}, models.ErrWalletTaken},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}, models.ErrConflict},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "name"}, models.ErrValidation},
		{"check", &pgconn.PgError{Code: "23514", ColumnName: "wallet_address"}, models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapPostgresError_UniqueViolationsAreConflicts(t *testing.T) {
	email := MapPostgresError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintEmailUnique})
	wallet := MapPostgresError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintWalletUnique})

	assert.ErrorIs(t, email, models.ErrConflict)
	assert.ErrorIs(t, wallet, models.ErrConflict)
	assert.False(t, errors.Is(email, models.ErrWalletTaken))
	assert.False(t, errors.Is(wallet, models.ErrEmailTaken))
}

func TestMapPostgresError_PassesThroughUnknown(t *testing.T) {
	boom := errors.New("connection reset")
	assert.Same(t, boom, MapPostgresError(boom))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	sql := string(body)

	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "-- +goose Down")
	assert.True(t, strings.Contains(sql, ConstraintEmailUnique), "email constraint name must match MapPostgresError")
	assert.True(t, strings.Contains(sql, ConstraintWalletUnique), "wallet constraint name must match MapPostgresError")
}
