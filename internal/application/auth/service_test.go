package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
)

func newTestService(t *testing.T) (*Service, *memory.SessionStore, *jwt.Manager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.NewSessionStore()
	manager := jwt.NewManager("test-secret", "library", time.Hour, 24*time.Hour)
	svc := NewService(Credentials{Username: "librarian", PasswordHash: string(hash)}, manager, store, 24*time.Hour, logger.Discard())
	return svc, store, manager
}

func TestLogin(t *testing.T) {
	svc, store, manager := newTestService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, " librarian ", "s3cret", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "librarian", result.Username)
	assert.True(t, store.HasSession("librarian"))

	claims, err := manager.ParseAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, claims.Role)

	_, err = svc.Login(ctx, "librarian", "wrong", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	_, err = svc.Login(ctx, "someone", "s3cret", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestLogin_NoPasswordConfigured(t *testing.T) {
	manager := jwt.NewManager("test-secret", "library", time.Hour, time.Hour)
	svc := NewService(Credentials{Username: "librarian"}, manager, memory.NewSessionStore(), time.Hour, logger.Discard())

	_, err := svc.Login(context.Background(), "librarian", "", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestLogout_RevokesAccessToken(t *testing.T) {
	svc, store, manager := newTestService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "librarian", "s3cret", "")
	require.NoError(t, err)
	claims, err := manager.ParseAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)

	revoked, err := svc.IsRevoked(ctx, claims.TokenID())
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.False(t, store.HasSession("librarian"))

	revoked, err = svc.IsRevoked(ctx, claims.TokenID())
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRefresh(t *testing.T) {
	svc, _, manager := newTestService(t)
	ctx := context.Background()

	result, err := svc.IssueToken("librarian")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)
	_, err = manager.ParseAccessToken(access)
	assert.NoError(t, err)

	_, err = svc.Refresh(ctx, result.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = svc.IssueToken("  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidParams)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidParams)
}
