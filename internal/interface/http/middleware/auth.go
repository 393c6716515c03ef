package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

// Context键
const (
	ctxKeyClaims   = "claims"
	ctxKeyUsername = "username"
	ctxKeyRole     = "role"
)

// RevocationChecker Token黑名单查询
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 验证签名、有效期,只接受Access Token
// 3. 检查Token黑名单(按jti)
// 4. 将馆员信息注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	revocation RevocationChecker
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, revocation RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		revocation: revocation,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	staff := v1.Group("")
//	staff.Use(authMiddleware.RequireAuth())
//	staff.POST("/loans", loanHandler.Borrow)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			response.Error(c, apperrors.ErrInvalidToken.WithReason("格式应为Bearer <token>"))
			c.Abort()
			return
		}

		// 2. 验证Token并解析Claims
		claims, err := m.jwtManager.ParseAccessToken(strings.TrimSpace(tokenString))
		if err != nil {
			response.Error(c, err) // ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		// 3. 黑名单(已登出)
		revoked, err := m.revocation.IsRevoked(c.Request.Context(), claims.TokenID())
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if revoked {
			response.Error(c, apperrors.ErrTokenExpired.WithReason("已登出,请重新登录"))
			c.Abort()
			return
		}

		// 4. 注入Context
		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyUsername, claims.Username)
		c.Set(ctxKeyRole, claims.Role)
		c.Next()
	}
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetUsername 当前登录馆员,未登录返回空串
func GetUsername(c *gin.Context) string {
	return c.GetString(ctxKeyUsername)
}

// GetClaims 当前Token的Claims
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
