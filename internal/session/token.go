package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"foodrescue/pkg/platform/sentinel"
)

// StoreTokens reads the bearer token from the persisted record on every call,
// so requests always carry whatever the store currently holds. Once bound to a
// Manager with Follow, it only hands out a token while that manager is
// authenticated.
type StoreTokens struct {
	store  Store
	logger *slog.Logger
	active atomic.Pointer[func() bool]
}

// NewStoreTokens returns a gateway token source backed by store.
func NewStoreTokens(store Store, logger *slog.Logger) *StoreTokens {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreTokens{store: store, logger: logger}
}

// Follow gates the token source on m being authenticated.
func (t *StoreTokens) Follow(m *Manager) {
	active := m.IsAuthenticated
	t.active.Store(&active)
}

// Token returns the persisted token, or "" when there is none, it cannot be
// read, or the record is incomplete. Unreadable records are left for Restore
// to heal.
func (t *StoreTokens) Token(ctx context.Context) string {
	if active := t.active.Load(); active != nil && !(*active)() {
		return ""
	}
	id, err := t.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			t.logger.WarnContext(ctx, "cannot read session token", "error", err)
		}
		return ""
	}
	if !id.Complete() {
		return ""
	}
	return id.Token
}

// TokenExpiry reads the exp claim of an access token without verifying its
// signature. The client cannot verify server-issued tokens; this is only used
// to size store TTLs and to show when a session ends.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expiry returns when the current session token expires, if it says.
func (m *Manager) Expiry() (time.Time, bool) {
	id, ok := m.Identity()
	if !ok {
		return time.Time{}, false
	}
	return TokenExpiry(id.Token)
}
