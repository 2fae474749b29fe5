package session

import (
	"context"

	"foodrescue/internal/domain"
)

// Store persists the single session record across process restarts.
//
// Load returns sentinel.ErrNotFound when nothing is stored and
// sentinel.ErrCorrupted when a record exists but cannot be decoded.
// Save replaces the record whole; Clear is a no-op when nothing is stored.
type Store interface {
	Load(ctx context.Context) (domain.Identity, error)
	Save(ctx context.Context, id domain.Identity) error
	Clear(ctx context.Context) error
}

// AuthAPI is the subset of the backend the manager drives.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.TokenResponse, error)
	Register(ctx context.Context, reg domain.Registration) (domain.User, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (domain.TokenResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// IdentityExchanger trades a third-party ID token for a session token.
type IdentityExchanger interface {
	ExchangeGoogleToken(ctx context.Context, idToken string) (domain.TokenResponse, error)
}
