// Package federated obtains third-party ID tokens and translates provider
// failures into messages the user can act on.
package federated

import (
	"context"
	"errors"
	"strings"
)

// Provider runs an interactive sign-in with a third party and returns the
// raw ID token it issued.
type Provider interface {
	IDToken(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) IDToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// Provider error codes. They follow the "auth/<reason>" convention used by
// hosted identity SDKs so backend and client agree on names.
const (
	CodeCancelled      = "auth/popup-closed-by-user"
	CodeNetwork        = "auth/network-request-failed"
	CodeAccessDenied   = "auth/access-denied"
	CodeInvalidState   = "auth/invalid-state"
	CodeInvalidToken   = "auth/invalid-id-token"
	CodeExchangeFailed = "auth/code-exchange-failed"
)

const (
	cancelledMessage = "Sign-in was cancelled. Please try again."
	networkMessage   = "Network error. Please check your connection."
	fallbackMessage  = "Failed to sign in with Google. Please try again."
)

// ErrNotConfigured is returned when no OAuth client credentials are available.
var ErrNotConfigured = errors.New("Google sign-in is not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.")

// ProviderError is a failure reported by the identity provider or the local
// sign-in flow.
type ProviderError struct {
	Code       string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError builds a provider error with an optional cause.
func NewProviderError(code, message string, underlying error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Underlying: underlying}
}

// IsCancelled reports whether the user abandoned the sign-in.
func IsCancelled(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeCancelled
}

// UserMessage maps a sign-in failure to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotConfigured) {
		return ErrNotConfigured.Error()
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.Code == CodeCancelled:
			return cancelledMessage
		case pe.Code == CodeNetwork:
			return networkMessage
		case strings.HasPrefix(pe.Code, "auth/"):
			return "Authentication error: " + pe.Error()
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackMessage
}
