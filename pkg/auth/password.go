package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultBcryptCost = 12
	MinPasswordLen    = 6
	MaxPasswordBytes  = 72 // bcrypt ignores input past 72 bytes
)

// ErrMismatchedPassword is returned by Compare when the password does not match the hash.
var ErrMismatchedPassword = errors.New("password does not match")

// PasswordValidationError holds validation error details
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "Password " + e.Errors[0]
}

var commonPasswords = map[string]bool{
	"password": true,
	"123456":   true,
	"12345678": true,
	"qwerty":   true,
	"abc123":   true,
	"111111":   true,
	"letmein":  true,
	"welcome":  true,
	"monkey":   true,
	"dragon":   true,
	"passw0rd": true,
	"trustno1": true,
}

// ValidatePassword enforces the password policy for new accounts.
func ValidatePassword(password string) error {
	problems := make([]string, 0)

	if utf8.RuneCountInString(password) < MinPasswordLen {
		problems = append(problems, fmt.Sprintf("must be at least %d characters long", MinPasswordLen))
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("must be at most %d bytes long", MaxPasswordBytes))
	}
	if commonPasswords[strings.ToLower(password)] {
		problems = append(problems, "is too common, please choose a more unique password")
	}

	if len(problems) > 0 {
		return &PasswordValidationError{Errors: problems}
	}
	return nil
}

// Hasher hashes and compares passwords with bcrypt. At most `concurrency`
// bcrypt operations run at once; callers beyond that wait or give up when
// their context is cancelled.
type Hasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

func NewHasher(cost int, concurrency int64) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Hasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(concurrency),
		dummy: dummy,
	}, nil
}

func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("hash slot unavailable: %w", err)
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare returns nil when password matches hash and ErrMismatchedPassword
// when it does not. Hashes that are not bcrypt hashes never match.
func (h *Hasher) Compare(ctx context.Context, hash, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("hash slot unavailable: %w", err)
	}
	defer h.sem.Release(1)

	// bcrypt only fails on mismatch or on a malformed stored hash.
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedPassword
	}
	return nil
}

// CompareDummy spends the same work as a real comparison against a hash of
// the configured cost. Used when no account matches so response time does
// not reveal whether the email exists.
func (h *Hasher) CompareDummy(ctx context.Context, password string) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer h.sem.Release(1)
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
