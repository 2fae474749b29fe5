// Package session owns the signed-in identity for the lifetime of the process.
//
// A Manager holds at most one identity, persists it through a Store and keeps
// the two in lockstep: the store is written first and memory only changes once
// the store has accepted the record. Readers never observe a half-written
// identity; each transition replaces it whole.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"foodrescue/internal/domain"
	"foodrescue/internal/federated"
	"foodrescue/internal/session/metrics"
	"foodrescue/internal/validation"
	"foodrescue/pkg/platform/sentinel"
)

// State is the coarse authentication state.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// ErrIncompleteResponse is returned when the backend issues a token without a
// user, or a user without a token.
var ErrIncompleteResponse = errors.New("The server returned an incomplete sign-in response. Please try again.")

// Operation names used in logs and metrics.
const (
	opRestore  = "restore"
	opLogin    = "login"
	opOTP      = "otp_verify"
	opFederate = "federated"
	opLogout   = "logout"
)

// Manager is the session state machine. Create one per process with New.
type Manager struct {
	store     Store
	auth      AuthAPI
	exchanger IdentityExchanger
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu       sync.RWMutex
	identity *domain.Identity
	loading  bool

	restoreOnce sync.Once
	restoreErr  error
	ready       chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithExchanger sets the federated token exchanger. When unset, auth is used
// if it implements IdentityExchanger.
func WithExchanger(exchanger IdentityExchanger) Option {
	return func(m *Manager) {
		m.exchanger = exchanger
	}
}

// New creates a manager in the loading state. Call Restore before relying on
// Identity.
func New(store Store, auth AuthAPI, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if auth == nil {
		return nil, errors.New("auth api is required")
	}

	m := &Manager{
		store:   store,
		auth:    auth,
		logger:  slog.Default(),
		loading: true,
		ready:   make(chan struct{}),
	}
	if ex, ok := auth.(IdentityExchanger); ok {
		m.exchanger = ex
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// Restore loads the persisted identity. Only the first call does any work;
// later calls return the first call's result.
//
// A record that cannot be parsed, or that lacks its token or user, is removed
// and the manager starts anonymous. Only infrastructure failures of the store
// are returned.
func (m *Manager) Restore(ctx context.Context) error {
	m.restoreOnce.Do(func() {
		m.restoreErr = m.restore(ctx)

		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		close(m.ready)
	})
	return m.restoreErr
}

func (m *Manager) restore(ctx context.Context) error {
	id, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		m.logger.DebugContext(ctx, "no persisted session")
		return nil
	case errors.Is(err, sentinel.ErrCorrupted):
		m.heal(ctx, err)
		return nil
	case err != nil:
		m.logger.ErrorContext(ctx, "failed to load persisted session", "error", err)
		return fmt.Errorf("load session: %w", err)
	case !id.Complete():
		m.heal(ctx, errors.New("record is missing its token or user"))
		return nil
	}

	m.mu.Lock()
	adopted := m.identity == nil
	if adopted {
		m.identity = &id
	}
	m.mu.Unlock()

	if adopted {
		m.logger.InfoContext(ctx, "session restored", "user_id", id.User.ID, "role", id.User.Role)
		m.recordTransition(opRestore)
	}
	return nil
}

// heal drops a corrupted record. Failure to delete it is logged; the manager
// still starts anonymous.
func (m *Manager) heal(ctx context.Context, cause error) {
	m.logger.WarnContext(ctx, "discarding corrupted persisted session", "error", cause)
	if m.metrics != nil {
		m.metrics.IncCorruptedRestore()
	}
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to remove corrupted session", "error", err)
	}
}

// Ready is closed once Restore has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Loading reports whether the initial restore is still pending.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Identity returns a copy of the current identity, if any.
func (m *Manager) Identity() (domain.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return domain.Identity{}, false
	}
	user := *m.identity.User
	return domain.Identity{Token: m.identity.Token, User: &user}, true
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *domain.User {
	id, ok := m.Identity()
	if !ok {
		return nil
	}
	return id.User
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil
}

func (m *Manager) State() State {
	if m.IsAuthenticated() {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Login signs in with email and password and returns the user the server
// reports, role included.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.User, error) {
	if err := validation.Credentials(email, password); err != nil {
		return domain.User{}, err
	}
	resp, err := m.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return domain.User{}, m.fail(ctx, opLogin, err)
	}
	return m.establish(ctx, opLogin, resp)
}

// Register creates an account. It does not sign the user in.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validation.Registration(reg); err != nil {
		return domain.User{}, err
	}
	user, err := m.auth.Register(ctx, reg)
	if err != nil {
		m.logger.InfoContext(ctx, "registration rejected", "error", err)
		return domain.User{}, err
	}
	m.logger.InfoContext(ctx, "account registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// RequestOTP asks for a one-time sign-in code to be emailed.
func (m *Manager) RequestOTP(ctx context.Context, email string) error {
	if err := validation.Email(email); err != nil {
		return err
	}
	return m.auth.RequestOTP(ctx, strings.TrimSpace(email))
}

// VerifyOTP signs in with a one-time code. Server messages for expired or
// incorrect codes are returned as-is.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) (domain.User, error) {
	if err := validation.Email(email); err != nil {
		return domain.User{}, err
	}
	if err := validation.OTPCode(code); err != nil {
		return domain.User{}, err
	}
	resp, err := m.auth.VerifyOTP(ctx, strings.TrimSpace(email), strings.TrimSpace(code))
	if err != nil {
		return domain.User{}, m.fail(ctx, opOTP, err)
	}
	return m.establish(ctx, opOTP, resp)
}

// GoogleLogin exchanges a Google ID token for a session.
func (m *Manager) GoogleLogin(ctx context.Context, idToken string) (domain.User, error) {
	if m.exchanger == nil {
		return domain.User{}, federated.ErrNotConfigured
	}
	resp, err := m.exchanger.ExchangeGoogleToken(ctx, idToken)
	if err != nil {
		return domain.User{}, m.fail(ctx, opFederate, err)
	}
	return m.establish(ctx, opFederate, resp)
}

// SignInWithProvider runs the provider's interactive flow, then exchanges the
// resulting ID token. Provider failures come back as a *federated.ProviderError
// or ErrNotConfigured; their user-facing text is federated.UserMessage(err).
func (m *Manager) SignInWithProvider(ctx context.Context, provider federated.Provider) (domain.User, error) {
	if provider == nil {
		return domain.User{}, federated.ErrNotConfigured
	}
	idToken, err := provider.IDToken(ctx)
	if err != nil {
		if federated.IsCancelled(err) {
			m.logger.InfoContext(ctx, "federated sign-in cancelled")
		}
		return domain.User{}, m.fail(ctx, opFederate, err)
	}
	return m.GoogleLogin(ctx, idToken)
}

// Logout forgets the identity in memory and in the store. It always succeeds;
// a store failure is logged. When the record cannot be removed it is
// overwritten with an empty one, which token sources ignore and Restore heals.
// Calling it while anonymous is harmless.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to clear persisted session", "error", err)
		if err := m.store.Save(ctx, domain.Identity{}); err != nil {
			m.logger.ErrorContext(ctx, "failed to blank persisted session", "error", err)
		}
	}

	m.mu.Lock()
	wasAuthenticated := m.identity != nil
	m.identity = nil
	m.mu.Unlock()

	if wasAuthenticated {
		m.logger.InfoContext(ctx, "signed out")
		m.recordTransition(opLogout)
	}
}

// RequestPasswordReset asks for a reset link. It does not touch the session.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.Email(email); err != nil {
		return err
	}
	return m.auth.RequestPasswordReset(ctx, strings.TrimSpace(email))
}

// ConfirmPasswordReset sets a new password using the token from a reset link.
// The link, the password rules and the confirmation are all checked before
// anything is sent.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirm string) error {
	if err := validation.PasswordReset(token, newPassword, confirm); err != nil {
		return err
	}
	return m.auth.ConfirmPasswordReset(ctx, strings.TrimSpace(token), newPassword)
}

// establish persists and adopts the identity issued by resp.
func (m *Manager) establish(ctx context.Context, op string, resp domain.TokenResponse) (domain.User, error) {
	id := resp.Identity()
	if !id.Complete() {
		return domain.User{}, m.fail(ctx, op, ErrIncompleteResponse)
	}
	user := *id.User
	id.User = &user

	if err := m.store.Save(ctx, id); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist session", "operation", op, "error", err)
		return domain.User{}, m.fail(ctx, op, fmt.Errorf("persist session: %w", err))
	}

	m.mu.Lock()
	m.identity = &id
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "signed in", "operation", op, "user_id", user.ID, "role", user.Role)
	m.recordTransition(op)
	return user, nil
}

func (m *Manager) fail(ctx context.Context, op string, err error) error {
	m.logger.InfoContext(ctx, "session operation failed", "operation", op, "error", err)
	if m.metrics != nil {
		m.metrics.IncFailed(op)
	}
	return err
}

func (m *Manager) recordTransition(op string) {
	if m.metrics == nil {
		return
	}
	authenticated := m.IsAuthenticated()
	state := StateAnonymous
	if authenticated {
		state = StateAuthenticated
	}
	m.metrics.IncTransition(op, string(state), authenticated)
}
