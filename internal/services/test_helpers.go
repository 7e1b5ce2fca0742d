package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/dualauth/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc     func(ctx context.Context, id int64) (*models.User, error)
	GetByEmailFunc  func(ctx context.Context, email string) (*models.User, error)
	GetByWalletFunc func(ctx context.Context, address string) (*models.User, error)
	CreateFunc      func(ctx context.Context, user *models.User) (*models.User, error)
	SaveFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	RecordLoginFunc func(ctx context.Context, id int64, at time.Time) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByWallet(ctx context.Context, address string) (*models.User, error) {
	if m.GetByWalletFunc != nil {
		return m.GetByWalletFunc(ctx, address)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) (*models.User, error) {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, id, at)
	}
	return nil, models.ErrInternalServer
}

// memoryUserRepository is a map-backed UserRepository with unique email and
// wallet indexes, for tests that need state across calls.
type memoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[int64]*models.User)}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.WalletAddress != nil {
		w := *u.WalletAddress
		c.WalletAddress = &w
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (r *memoryUserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepository) GetByWallet(_ context.Context, address string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Wallet() == address && address != "" {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, models.ErrEmailTaken
		}
		if user.Wallet() != "" && u.Wallet() == user.Wallet() {
			return nil, models.ErrWalletTaken
		}
	}

	r.nextID++
	stored := copyUser(user)
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = stored
	return copyUser(stored), nil
}

func (r *memoryUserRepository) Save(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, models.ErrNotFound
	}
	stored := copyUser(user)
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = stored
	return copyUser(stored), nil
}

func (r *memoryUserRepository) RecordLogin(_ context.Context, id int64, at time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.LoginCount++
	t := at
	u.LastLoginAt = &t
	u.UpdatedAt = at
	return copyUser(u), nil
}

// NewTestUser creates a password-scheme user for testing
func NewTestUser(id int64, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$04$invalidhashfortestingpurposesonly",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestWalletUser creates a wallet-scheme user for testing
func NewTestWalletUser(id int64, email, name, wallet string) *models.User {
	u := NewTestUser(id, email, name)
	u.PasswordHash = models.NoPasswordSentinel
	u.WalletAddress = &wallet
	return u
}
