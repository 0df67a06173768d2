package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRejectsReplay(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Reserve(ctx, "k1", time.Minute))
	assert.ErrorIs(t, s.Reserve(ctx, "k1", time.Minute), ErrReplayed)
	assert.NoError(t, s.Reserve(ctx, "k2", time.Minute))
}

func TestMemoryStoreReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Reserve(ctx, "k", time.Minute))
	require.NoError(t, s.Release(ctx, "k"))
	assert.NoError(t, s.Reserve(ctx, "k", time.Minute))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Reserve(ctx, "k", time.Minute))
	now = now.Add(2 * time.Minute)
	assert.NoError(t, s.Reserve(ctx, "k", time.Minute))

	now = now.Add(2 * time.Minute)
	s.Cleanup()
	assert.Empty(t, s.keys)
}
