package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

// DefaultTimeout bounds tests that talk to in-process servers.
const DefaultTimeout = 10 * time.Second

// Context returns a context that is cancelled when the test ends or after
// DefaultTimeout, whichever comes first.
func Context(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
