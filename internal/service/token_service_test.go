package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saufi-opi/mini-emr/internal/models"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestTokenService(store RevocationStore) (*TokenService, *testClock) {
	clock := &testClock{now: fixedNow}
	return NewTokenService(store, "test-secret", nil).WithClock(clock.Now), clock
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc, _ := newTestTokenService(newMemoryRevocationStore())

	access, expiresAt, err := svc.IssueAccess("doc@example.com", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(30*time.Minute), expiresAt)

	claims, ok := svc.Validate(access)
	require.True(t, ok)
	assert.Equal(t, "doc@example.com", claims.Subject)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.Empty(t, claims.ID)

	refresh, jti, err := svc.IssueRefresh("doc@example.com", 7*24*time.Hour)
	require.NoError(t, err)
	claims, ok = svc.Validate(refresh)
	require.True(t, ok)
	assert.Equal(t, models.TokenTypeRefresh, claims.Type)
	assert.Equal(t, jti, claims.ID)
}

func TestTokenServiceRefreshTokensAreUnique(t *testing.T) {
	svc, _ := newTestTokenService(newMemoryRevocationStore())

	first, _, err := svc.IssueRefresh("doc@example.com", time.Hour)
	require.NoError(t, err)
	second, _, err := svc.IssueRefresh("doc@example.com", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc, clock := newTestTokenService(newMemoryRevocationStore())

	token, _, err := svc.IssueAccess("doc@example.com", time.Minute)
	require.NoError(t, err)

	clock.now = fixedNow.Add(30 * time.Second)
	_, ok := svc.Validate(token)
	assert.True(t, ok)

	clock.now = fixedNow.Add(time.Minute - time.Nanosecond)
	_, ok = svc.Validate(token)
	assert.True(t, ok)

	clock.now = fixedNow.Add(time.Minute)
	_, ok = svc.Validate(token)
	assert.False(t, ok, "a token is invalid at its exact expiry")

	clock.now = fixedNow.Add(2 * time.Minute)
	_, ok = svc.Validate(token)
	assert.False(t, ok)
}

func TestTokenServiceExpiryMatchesTokenClaim(t *testing.T) {
	svc, clock := newTestTokenService(newMemoryRevocationStore())
	clock.now = fixedNow.Add(750 * time.Millisecond)

	token, expiresAt, err := svc.IssueAccess("doc@example.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Minute), expiresAt)

	claims, ok := svc.Validate(token)
	require.True(t, ok)
	assert.True(t, claims.ExpiresAt.Time.Equal(expiresAt))
}

func TestTokenServiceRevokeJustBeforeExpiry(t *testing.T) {
	store := newMemoryRevocationStore()
	svc, clock := newTestTokenService(store)
	ctx := context.Background()

	token, jti, err := svc.IssueRefresh("doc@example.com", time.Minute)
	require.NoError(t, err)

	clock.now = fixedNow.Add(time.Minute - time.Second)
	require.NoError(t, svc.Revoke(ctx, token))
	assert.Equal(t, time.Second, store.keys[models.RevocationPrefix+jti])
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	svc, _ := newTestTokenService(newMemoryRevocationStore())
	other := NewTokenService(newMemoryRevocationStore(), "another-secret", nil).WithClock(func() time.Time { return fixedNow })

	token, _, err := other.IssueAccess("doc@example.com", time.Minute)
	require.NoError(t, err)

	_, ok := svc.Validate(token)
	assert.False(t, ok)

	_, ok = svc.Validate("not-a-token")
	assert.False(t, ok)

	_, ok = svc.Validate("")
	assert.False(t, ok)
}

func TestTokenServiceRevokeRefreshUsesRemainingLifetime(t *testing.T) {
	store := newMemoryRevocationStore()
	svc, clock := newTestTokenService(store)
	ctx := context.Background()

	token, jti, err := svc.IssueRefresh("doc@example.com", 7*24*time.Hour)
	require.NoError(t, err)

	clock.now = fixedNow.Add(time.Hour)
	require.NoError(t, svc.Revoke(ctx, token))

	ttl, ok := store.keys[models.RevocationPrefix+jti]
	require.True(t, ok)
	assert.Equal(t, 7*24*time.Hour-time.Hour, ttl)

	revoked, err := svc.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenServiceRevokeAccessKeyedByToken(t *testing.T) {
	store := newMemoryRevocationStore()
	svc, _ := newTestTokenService(store)
	ctx := context.Background()

	token, _, err := svc.IssueAccess("doc@example.com", 30*time.Minute)
	require.NoError(t, err)

	revoked, err := svc.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Revoke(ctx, token))
	assert.Equal(t, 30*time.Minute, store.keys[models.RevocationPrefix+token])

	revoked, err = svc.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenServiceRevokeSkipsUnusableTokens(t *testing.T) {
	store := newMemoryRevocationStore()
	svc, clock := newTestTokenService(store)
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "garbage"))

	other := NewTokenService(store, "another-secret", nil).WithClock(clock.Now)
	forged, _, err := other.IssueAccess("doc@example.com", time.Hour)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, forged))

	expired, _, err := svc.IssueAccess("doc@example.com", time.Minute)
	require.NoError(t, err)
	clock.now = fixedNow.Add(time.Hour)
	require.NoError(t, svc.Revoke(ctx, expired))

	assert.Empty(t, store.keys)
}

func TestTokenServiceStoreFailures(t *testing.T) {
	store := newMemoryRevocationStore()
	svc, _ := newTestTokenService(store)
	ctx := context.Background()

	token, _, err := svc.IssueAccess("doc@example.com", time.Minute)
	require.NoError(t, err)

	store.putErr = errStoreDown
	assert.ErrorIs(t, svc.Revoke(ctx, token), errStoreDown)

	store.getErr = errStoreDown
	_, err = svc.IsRevoked(ctx, token)
	assert.ErrorIs(t, err, errStoreDown)
}
