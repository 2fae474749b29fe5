package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"foodrescue/internal/api"
	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
	"foodrescue/internal/session"
	"foodrescue/internal/session/store"
	"foodrescue/pkg/testutil/fakeapi"
)

// BaseURLEnv points the suite at a running backend instead of the in-process
// fake.
const BaseURLEnv = "FOODRESCUE_E2E_BASE_URL"

// TestContext holds the state of one scenario: a client wired exactly as the
// CLI wires it, plus the outcome of the last step that talked to the backend.
type TestContext struct {
	baseURL string
	backend *fakeapi.Server
	runID   string
	dir     string
	logger  *slog.Logger

	session *session.Manager
	api     *api.Client

	lastErr  error
	lastUser domain.User
	lastFood []domain.FoodItem
}

func (tc *TestContext) setUp(ctx context.Context) error {
	tc.baseURL = os.Getenv(BaseURLEnv)
	if tc.baseURL == "" {
		tc.backend = fakeapi.New()
		tc.baseURL = tc.backend.BaseURL()
	}
	dir, err := os.MkdirTemp("", "foodrescue-e2e-")
	if err != nil {
		return err
	}
	tc.dir = dir
	tc.runID = uuid.NewString()[:8]
	tc.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return tc.Restart(ctx)
}

func (tc *TestContext) tearDown() {
	if tc.backend != nil {
		tc.backend.Close()
	}
	if tc.dir != "" {
		_ = os.RemoveAll(tc.dir)
	}
}

// Restart builds a fresh client over the same session file, as a new process
// would, and restores the session.
func (tc *TestContext) Restart(ctx context.Context) error {
	st, err := store.NewFile(filepath.Join(tc.dir, store.Key))
	if err != nil {
		return err
	}
	tokens := session.NewStoreTokens(st, tc.logger)
	gw, err := gateway.New(tc.baseURL,
		gateway.WithTokenSource(tokens),
		gateway.WithLogger(tc.logger),
	)
	if err != nil {
		return err
	}
	tc.api = api.New(gw)
	tc.session, err = session.New(st, tc.api.Auth, session.WithLogger(tc.logger))
	if err != nil {
		return err
	}
	tokens.Follow(tc.session)
	return tc.session.Restore(ctx)
}

func (tc *TestContext) Session() *session.Manager {
	return tc.session
}

func (tc *TestContext) API() *api.Client {
	return tc.api
}

// Email makes an address unique to this run when a shared backend is in use.
func (tc *TestContext) Email(addr string) string {
	if tc.backend != nil {
		return addr
	}
	local, host, ok := strings.Cut(addr, "@")
	if !ok {
		return addr
	}
	return fmt.Sprintf("%s+%s@%s", local, tc.runID, host)
}

func (tc *TestContext) Record(err error) {
	tc.lastErr = err
}

func (tc *TestContext) LastError() error {
	return tc.lastErr
}

func (tc *TestContext) SetUser(u domain.User) {
	tc.lastUser = u
}

func (tc *TestContext) LastUser() domain.User {
	return tc.lastUser
}

func (tc *TestContext) SetFood(items []domain.FoodItem) {
	tc.lastFood = items
}

func (tc *TestContext) LastFood() []domain.FoodItem {
	return tc.lastFood
}
