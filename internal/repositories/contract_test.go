package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/dualauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userStore is the behaviour shared by both backends.
type userStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByWallet(ctx context.Context, address string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) (*models.User, error)
	HealthCheck(ctx context.Context) error
}

var (
	_ userStore = (*UserRepository)(nil)
	_ userStore = (*SQLiteUserRepository)(nil)
)

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
	hashA   = "$2a$12$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ01234"
)

func strPtr(s string) *string { return &s }

func passwordUser(name, email string) *models.User {
	return &models.User{Name: name, Email: email, PasswordHash: hashA, IsActive: true}
}

func walletUser(name, email, wallet string) *models.User {
	return &models.User{
		Name:          name,
		Email:         email,
		PasswordHash:  models.NoPasswordSentinel,
		WalletAddress: strPtr(wallet),
		IsActive:      true,
	}
}

// runUserStoreContract exercises a store produced fresh by newStore for every subtest.
func runUserStoreContract(t *testing.T, newStore func(t *testing.T) userStore) {
	ctx := context.Background()

	// =============================================================================
	// Create / lookup
	// =============================================================================

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, passwordUser("alice", "Alice@Example.com "))
		require.NoError(t, err)

		assert.Positive(t, created.ID)
		assert.Equal(t, "alice@example.com", created.Email)
		assert.Nil(t, created.WalletAddress)
		assert.True(t, created.IsActive)
		assert.Zero(t, created.LoginCount)
		assert.Nil(t, created.LastLoginAt)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, models.SchemePassword, created.Scheme())
	})

	t.Run("lookups by id email and wallet", func(t *testing.T) {
		store := newStore(t)

		pw, err := store.Create(ctx, passwordUser("bob", "bob@example.com"))
		require.NoError(t, err)
		wl, err := store.Create(ctx, walletUser("carol", "carol@example.com", walletA))
		require.NoError(t, err)

		got, err := store.GetByID(ctx, pw.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", got.Email)

		got, err = store.GetByEmail(ctx, "BOB@example.com")
		require.NoError(t, err)
		assert.Equal(t, pw.ID, got.ID)

		got, err = store.GetByWallet(ctx, walletA)
		require.NoError(t, err)
		assert.Equal(t, wl.ID, got.ID)
		assert.Equal(t, models.SchemeWallet, got.Scheme())
		assert.Equal(t, models.NoPasswordSentinel, got.PasswordHash)
	})

	t.Run("wallet lookup is case insensitive", func(t *testing.T) {
		store := newStore(t)

		mixed := "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
		created, err := store.Create(ctx, walletUser("dave", "dave@example.com", mixed))
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(mixed), created.Wallet())

		got, err := store.GetByWallet(ctx, "0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("missing rows are not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = store.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = store.GetByWallet(ctx, walletB)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	// =============================================================================
	// Uniqueness
	// =============================================================================

	t.Run("duplicate email is rejected", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Create(ctx, passwordUser("erin", "erin@example.com"))
		require.NoError(t, err)

		_, err = store.Create(ctx, walletUser("erin2", "ERIN@example.com", walletA))
		assert.ErrorIs(t, err, models.ErrEmailTaken)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("duplicate wallet is rejected", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Create(ctx, walletUser("frank", "frank@example.com", walletA))
		require.NoError(t, err)

		_, err = store.Create(ctx, walletUser("frank2", "frank2@example.com", walletA))
		assert.ErrorIs(t, err, models.ErrWalletTaken)
		assert.False(t, errors.Is(err, models.ErrEmailTaken))
	})

	t.Run("many password users may omit wallet", func(t *testing.T) {
		store := newStore(t)

		for _, email := range []string{"g1@example.com", "g2@example.com", "g3@example.com"} {
			_, err := store.Create(ctx, passwordUser("gina", email))
			require.NoError(t, err)
		}
	})

	t.Run("concurrent creates with same email yield one row", func(t *testing.T) {
		store := newStore(t)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.Create(ctx, passwordUser("race", "race@example.com"))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, models.ErrEmailTaken)
		}
		assert.Equal(t, 1, succeeded)
	})

	// =============================================================================
	// Validation
	// =============================================================================

	t.Run("invalid fields never reach the table", func(t *testing.T) {
		store := newStore(t)

		cases := []*models.User{
			passwordUser("a", "short@example.com"),
			passwordUser(strings.Repeat("n", 51), "long@example.com"),
			passwordUser("valid name", "not-an-email"),
			walletUser("valid name", "wallet@example.com", "0x123"),
			walletUser("valid name", "wallet2@example.com", "1111111111111111111111111111111111111111"),
			{Name: "no credential", Email: "nocred@example.com", IsActive: true},
		}
		for _, u := range cases {
			_, err := store.Create(ctx, u)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr, "user %+v", u)
			assert.ErrorIs(t, err, models.ErrValidation)
		}

		_, err := store.GetByEmail(ctx, "short@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("name length counts characters not bytes", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Create(ctx, passwordUser(strings.Repeat("é", 50), "runes@example.com"))
		assert.NoError(t, err)
	})

	// =============================================================================
	// Save / RecordLogin
	// =============================================================================

	t.Run("save persists mutable fields", func(t *testing.T) {
		store := newStore(t)

		u, err := store.Create(ctx, passwordUser("hank", "hank@example.com"))
		require.NoError(t, err)

		u.Name = "Hank Renamed"
		u.IsActive = false
		saved, err := store.Save(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, "Hank Renamed", saved.Name)
		assert.False(t, saved.IsActive)

		reloaded, err := store.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.IsActive)
	})

	t.Run("save of unknown user is not found", func(t *testing.T) {
		store := newStore(t)

		u := passwordUser("ivy", "ivy@example.com")
		u.ID = 424242
		_, err := store.Save(ctx, u)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("record login increments atomically", func(t *testing.T) {
		store := newStore(t)

		u, err := store.Create(ctx, walletUser("jack", "jack@example.com", walletB))
		require.NoError(t, err)

		const logins = 10
		var wg sync.WaitGroup
		for i := 0; i < logins; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.RecordLogin(ctx, u.ID, time.Now())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.EqualValues(t, logins, got.LoginCount)
		require.NotNil(t, got.LastLoginAt)
		assert.WithinDuration(t, time.Now(), *got.LastLoginAt, time.Minute)
	})

	t.Run("record login of unknown user", func(t *testing.T) {
		store := newStore(t)

		_, err := store.RecordLogin(ctx, 77777, time.Now())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("health check", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.HealthCheck(ctx))
	})
}
