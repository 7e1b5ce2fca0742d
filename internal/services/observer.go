package services

import (
	"context"
	"time"
)

// AuthEvent describes one completed auth call as seen at the HTTP boundary.
type AuthEvent struct {
	Operation string // register, login, profile, verify
	Scheme    string // password, wallet, or empty for token-only routes
	Outcome   string // success or an error code
	Duration  time.Duration
}

// AuthObserver receives auth events, e.g. for metrics.
type AuthObserver interface {
	ObserveAuth(ctx context.Context, event AuthEvent)
}

type NoopObserver struct{}

func (NoopObserver) ObserveAuth(context.Context, AuthEvent) {}
