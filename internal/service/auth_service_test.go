package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
)

type authFixture struct {
	svc    *AuthService
	tokens *TokenService
	store  *memoryRevocationStore
	users  *memoryUserRepo
	clock  *testClock
}

func newAuthFixture(users ...*models.User) *authFixture {
	store := newMemoryRevocationStore()
	tokens, clock := newTestTokenService(store)
	repo := newMemoryUserRepo(users...)
	svc := NewAuthService(repo, tokens, plainHasher{}, nil, nil, AuthConfig{
		AccessTokenExpiry:  30 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	})
	return &authFixture{svc: svc, tokens: tokens, store: store, users: repo, clock: clock}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	f := newAuthFixture(newDoctor("d1", "doc@example.com"))

	session, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "bearer", session.Token.TokenType)
	assert.Equal(t, int64(1800), session.Token.ExpiresIn)
	assert.Equal(t, "d1", session.User.ID)

	claims, ok := f.tokens.Validate(session.Token.AccessToken)
	require.True(t, ok)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.Equal(t, "doc@example.com", claims.Subject)

	claims, ok = f.tokens.Validate(session.RefreshToken)
	require.True(t, ok)
	assert.Equal(t, models.TokenTypeRefresh, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	inactive := newDoctor("d2", "off@example.com")
	inactive.IsActive = false
	f := newAuthFixture(newDoctor("d1", "doc@example.com"), inactive)
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.LoginRequest
		want *appErrors.Error
	}{
		{"unknown email", models.LoginRequest{Email: "nobody@example.com", Password: "secret123"}, appErrors.ErrInvalidLogin},
		{"wrong password", models.LoginRequest{Email: "doc@example.com", Password: "nope"}, appErrors.ErrInvalidLogin},
		{"inactive wrong password", models.LoginRequest{Email: "off@example.com", Password: "nope"}, appErrors.ErrInvalidLogin},
		{"inactive", models.LoginRequest{Email: "off@example.com", Password: "secret123"}, appErrors.ErrInactivePrincipal},
		{"malformed", models.LoginRequest{Email: "not-an-email", Password: "secret123"}, appErrors.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session, err := f.svc.Login(ctx, tc.req)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthServiceLoginRepositoryFailure(t *testing.T) {
	f := newAuthFixture()
	f.users.err = errStoreDown

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	assert.Equal(t, appErrors.KindInternal, appErrors.KindOf(err))
}

func TestAuthServiceRefresh(t *testing.T) {
	f := newAuthFixture(newDoctor("d1", "doc@example.com"))
	ctx := context.Background()

	session, err := f.svc.Login(ctx, models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	f.clock.now = fixedNow.Add(time.Hour)
	token, err := f.svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	claims, ok := f.tokens.Validate(token.AccessToken)
	require.True(t, ok)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.Equal(t, "bearer", token.TokenType)

	_, err = f.svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)

	_, err = f.svc.Refresh(ctx, session.Token.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)

	_, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)
}

func TestAuthServiceRefreshRejectsDeactivatedUser(t *testing.T) {
	f := newAuthFixture(newDoctor("d1", "doc@example.com"))
	ctx := context.Background()

	session, err := f.svc.Login(ctx, models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	f.users.users["d1"].IsActive = false
	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)

	delete(f.users.users, "d1")
	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)
}

func TestAuthServiceLogoutRevokesBothTokens(t *testing.T) {
	f := newAuthFixture(newDoctor("d1", "doc@example.com"))
	ctx := context.Background()

	session, err := f.svc.Login(ctx, models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, session.Token.AccessToken, session.RefreshToken))
	assert.Len(t, f.store.keys, 2)

	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)

	guard := NewGuardService(f.tokens, f.users, nil)
	_, err = guard.Authenticate(ctx, session.Token.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrCredentialsRejected)
}

func TestAuthServiceLogoutTolerance(t *testing.T) {
	f := newAuthFixture(newDoctor("d1", "doc@example.com"))
	ctx := context.Background()

	assert.NoError(t, f.svc.Logout(ctx, "", ""))
	assert.NoError(t, f.svc.Logout(ctx, "garbage", ""))
	assert.Empty(t, f.store.keys)

	session, err := f.svc.Login(ctx, models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)
	f.store.putErr = errStoreDown
	err = f.svc.Logout(ctx, session.Token.AccessToken, "")
	assert.Equal(t, appErrors.KindInternal, appErrors.KindOf(err))
}
