package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-signing-key", "blockparty-test", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "guest@example.com", "Guest")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "guest@example.com", claims.Email)
	assert.Equal(t, "Guest", claims.Name)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	m := newTestManager()

	token, claims, err := m.GenerateRefreshToken(uuid.New(), "guest@example.com", "Guest")
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	parsed, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, parsed.TokenType)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	m := newTestManager()
	other := NewManager("test-signing-key", "someone-else", 15*time.Minute, 24*time.Hour)

	token, err := other.GenerateAccessToken(uuid.New(), "guest@example.com", "Guest")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	m := newTestManager()
	other := NewManager("different-key", "blockparty-test", 15*time.Minute, 24*time.Hour)

	token, err := other.GenerateAccessToken(uuid.New(), "guest@example.com", "Guest")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager("test-signing-key", "blockparty-test", -time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), "guest@example.com", "Guest")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}
