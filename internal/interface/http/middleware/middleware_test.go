package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

type fakeRevocation struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocation) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], f.err
}

func newEngine(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		response.Success(c, gin.H{"username": GetUsername(c), "jti": claims.TokenID()})
	})
	return r
}

func doGet(r *gin.Engine, authorization string) response.Response {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestRequireAuth(t *testing.T) {
	manager := jwt.NewManager("test-secret", "library", time.Hour, 24*time.Hour)
	pair, err := manager.GenerateToken("librarian", "staff")
	require.NoError(t, err)
	revocation := &fakeRevocation{revoked: map[string]bool{}}
	r := newEngine(NewAuthMiddleware(manager, revocation))

	tests := []struct {
		name          string
		authorization string
		wantCode      int
	}{
		{"缺少Header", "", apperrors.ErrCodeUnauthorized},
		{"格式错误", "Token abc", apperrors.ErrCodeInvalidToken},
		{"Refresh Token不能访问接口", "Bearer " + pair.RefreshToken, apperrors.ErrCodeInvalidToken},
		{"有效Token", "Bearer " + pair.AccessToken, 0},
		{"scheme不区分大小写", "bearer " + pair.AccessToken, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(r, tt.authorization)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestRequireAuth_Revoked(t *testing.T) {
	manager := jwt.NewManager("test-secret", "library", time.Hour, 24*time.Hour)
	pair, err := manager.GenerateToken("librarian", "staff")
	require.NoError(t, err)
	claims, err := manager.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)

	revocation := &fakeRevocation{revoked: map[string]bool{claims.TokenID(): true}}
	resp := doGet(newEngine(NewAuthMiddleware(manager, revocation)), "Bearer "+pair.AccessToken)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, resp.Code)

	revocation = &fakeRevocation{err: apperrors.ErrRedisError}
	resp = doGet(newEngine(NewAuthMiddleware(manager, revocation)), "Bearer "+pair.AccessToken)
	assert.Equal(t, apperrors.ErrCodeRedisError, resp.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = GetRequestID(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/fail", func(c *gin.Context) { response.Error(c, errors.New("boom")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
