package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockparty/server/internal/config"
	"blockparty/server/internal/model"
	"blockparty/server/internal/repository"
	jwtpkg "blockparty/server/pkg/jwt"
)

func newAuthFixture(t *testing.T) (*authService, repository.UserRepository, repository.StateStore) {
	t.Helper()

	db := newTestDB(t)
	users := repository.NewPGUserRepository(db)
	stateStore := repository.NewMemoryStateStore()
	jwtManager := jwtpkg.NewManager("test-key", "blockparty-test", 15*time.Minute, 24*time.Hour)

	cfg := config.OAuth2Config{
		Google: config.OAuth2ProviderConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost/callback",
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
	svc := NewAuthService(cfg, users, stateStore, jwtManager).(*authService)
	return svc, users, stateStore
}

func TestAuthorizationURL(t *testing.T) {
	svc, _, stateStore := newAuthFixture(t)
	ctx := context.Background()

	authURL, err := svc.AuthorizationURL(ctx, "google")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(authURL, "https://accounts.google.com/"))

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))

	// The CSRF state must be stored for the callback to consume.
	state := q.Get("state")
	require.NotEmpty(t, state)
	exists, err := stateStore.Exists(ctx, oauth2StatePrefix+state)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAuthorizationURLUnconfiguredProvider(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.AuthorizationURL(context.Background(), "github")
	assert.ErrorIs(t, err, ErrOAuth2ProviderNotConfigured)

	_, err = svc.AuthorizationURL(context.Background(), "myspace")
	assert.ErrorIs(t, err, ErrOAuth2ProviderNotConfigured)
}

func TestConsumeStateIsSingleUse(t *testing.T) {
	svc, _, stateStore := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, stateStore.Set(ctx, oauth2StatePrefix+"tok", []byte("google"), time.Minute))

	require.NoError(t, svc.consumeState(ctx, "tok", "google"))
	assert.ErrorIs(t, svc.consumeState(ctx, "tok", "google"), ErrOAuth2InvalidState)
}

func TestConsumeStateProviderMismatch(t *testing.T) {
	svc, _, stateStore := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, stateStore.Set(ctx, oauth2StatePrefix+"tok", []byte("github"), time.Minute))
	assert.ErrorIs(t, svc.consumeState(ctx, "tok", "google"), ErrOAuth2InvalidState)
}

func TestRefreshRotation(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	user := &model.User{Email: "guest@example.com", Name: "Guest"}
	require.NoError(t, users.Upsert(ctx, user))

	set, err := svc.issueTokenSet(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, set.AccessToken)
	require.NotEmpty(t, set.RefreshToken)

	rotated, err := svc.Refresh(ctx, set.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, set.RefreshToken, rotated.RefreshToken)

	// The spent token is revoked.
	_, err = svc.Refresh(ctx, set.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)

	// The rotated one still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	user := &model.User{Email: "guest@example.com", Name: "Guest"}
	require.NoError(t, users.Upsert(ctx, user))

	set, err := svc.issueTokenSet(ctx, user)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, set.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	user := &model.User{Email: "guest@example.com", Name: "Guest"}
	require.NoError(t, users.Upsert(ctx, user))

	set, err := svc.issueTokenSet(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, set.RefreshToken))
	_, err = svc.Refresh(ctx, set.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)

	// Logging out garbage is a no-op.
	assert.NoError(t, svc.Logout(ctx, "not-a-token"))
}
