package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

func TestManager_GenerateAndParse(t *testing.T) {
	m := NewManager("secret", "library", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken("admin", "staff")
	require.NoError(t, err)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	claims, err := m.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "staff", claims.Role)
	assert.NotEmpty(t, claims.TokenID())
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)

	// Refresh Token不能直接访问接口
	_, err = m.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("secret", "library", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Minute)
	m.now = func() time.Time { return issued }
	pair, err := m.GenerateToken("admin", "staff")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestManager_InvalidToken(t *testing.T) {
	m := NewManager("secret", "library", time.Hour, time.Hour)
	other := NewManager("other-secret", "library", time.Hour, time.Hour)
	wrongIssuer := NewManager("secret", "bookstore", time.Hour, time.Hour)

	pair, err := other.GenerateToken("admin", "staff")
	require.NoError(t, err)
	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	pair, err = wrongIssuer.GenerateToken("admin", "staff")
	require.NoError(t, err)
	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestManager_RefreshAccessToken(t *testing.T) {
	m := NewManager("secret", "library", time.Hour, 24*time.Hour)
	pair, err := m.GenerateToken("admin", "staff")
	require.NoError(t, err)

	access, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)
	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = m.RefreshAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
