package federated

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type blankError struct{}

func (blankError) Error() string { return "" }

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"cancelled", NewProviderError(CodeCancelled, "window closed", nil), "Sign-in was cancelled. Please try again."},
		{"network", NewProviderError(CodeNetwork, "dial tcp: refused", nil), "Network error. Please check your connection."},
		{"other provider code", NewProviderError(CodeInvalidToken, "token expired", nil), "Authentication error: token expired"},
		{"wrapped provider error", fmt.Errorf("google: %w", NewProviderError(CodeAccessDenied, "denied", nil)), "Authentication error: denied"},
		{"not configured", fmt.Errorf("start: %w", ErrNotConfigured), ErrNotConfigured.Error()},
		{"raw message", errors.New("something odd"), "something odd"},
		{"empty message", blankError{}, "Failed to sign in with Google. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UserMessage(tc.err))
		})
	}
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(fmt.Errorf("x: %w", NewProviderError(CodeCancelled, "", nil))))
	assert.False(t, IsCancelled(NewProviderError(CodeNetwork, "", nil)))
	assert.False(t, IsCancelled(errors.New("plain")))
}
