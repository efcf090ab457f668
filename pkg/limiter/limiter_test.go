package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicRateLimiter_Wait(t *testing.T) {
	l := NewDynamicRateLimiter(time.Millisecond, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
}

func TestDynamicRateLimiter_Update(t *testing.T) {
	l := NewDynamicRateLimiter(time.Hour, 1)

	require.NoError(t, l.Wait(context.Background()))

	// The burst is spent and the next token is an hour away, so a
	// bounded wait must fail.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx))

	l.Update(time.Millisecond, 1)

	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, l.Wait(ctx))
}
