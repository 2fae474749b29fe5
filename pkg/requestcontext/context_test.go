package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, Command(ctx))

	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCommand(ctx, "login")

	assert.Equal(t, "corr-1", CorrelationID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "login", Command(ctx))
}
