package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_Expiry(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	blacklist.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "short", time.Minute))
	now = now.Add(2 * time.Minute)

	revoked, err := blacklist.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Revoke(ctx, "other", time.Minute))
	assert.NotContains(t, blacklist.revoked, "short")
}

func TestInMemoryTokenBlacklist_NonPositiveTTL(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.Revoke(context.Background(), "expired", 0))
	assert.Empty(t, blacklist.revoked)
}
