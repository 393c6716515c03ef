// Package auth 馆员登录、登出与Token刷新
package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
)

// RoleStaff 馆员角色,目前唯一的角色
const RoleStaff = "staff"

// TokenStore 会话与Token黑名单
// Redis实现见persistence/redis.SessionStore,内存实现见persistence/memory.SessionStore
type TokenStore interface {
	SaveSession(ctx context.Context, username string, data map[string]any, ttl time.Duration) error
	DeleteSession(ctx context.Context, username string) error
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Credentials 馆员账号,密码只保存bcrypt哈希
type Credentials struct {
	Username     string
	PasswordHash string
}

// Service 认证服务
type Service struct {
	creds      Credentials
	jwt        *jwt.Manager
	store      TokenStore
	sessionTTL time.Duration
	log        *slog.Logger
	now        func() time.Time
}

// NewService 创建认证服务
// sessionTTL一般等于Refresh Token有效期
func NewService(creds Credentials, jwtManager *jwt.Manager, store TokenStore, sessionTTL time.Duration, log *slog.Logger) *Service {
	if creds.PasswordHash == "" {
		log.Warn("未配置馆员密码哈希(auth.admin_password_hash),登录接口不可用")
	}
	return &Service{
		creds:      creds,
		jwt:        jwtManager,
		store:      store,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
	}
}

// LoginResult 登录结果
type LoginResult struct {
	Username string
	Role     string
	Tokens   *jwt.TokenPair
}

// Login 校验用户名密码并签发Token对
// 用户名或密码错误统一返回ErrInvalidPassword,不区分具体原因
func (s *Service) Login(ctx context.Context, username, password, clientIP string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if s.creds.PasswordHash == "" ||
		subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) != 1 {
		return nil, apperrors.ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)); err != nil {
		s.log.WarnContext(ctx, "登录失败", "username", username, "ip", clientIP)
		return nil, apperrors.ErrInvalidPassword
	}

	result, err := s.issue(username)
	if err != nil {
		return nil, err
	}

	// 会话保存失败不影响登录
	session := map[string]any{
		"role":     RoleStaff,
		"login_at": s.now(),
		"ip":       clientIP,
	}
	if err := s.store.SaveSession(ctx, username, session, s.sessionTTL); err != nil {
		s.log.ErrorContext(ctx, "保存会话失败", "username", username, "error", err)
	}

	s.log.InfoContext(ctx, "馆员登录", "username", username, "ip", clientIP)
	return result, nil
}

// IssueToken 不校验密码直接签发Token,供命令行工具使用
func (s *Service) IssueToken(username string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperrors.ErrInvalidParams.WithReason("用户名不能为空")
	}
	return s.issue(strings.TrimSpace(username))
}

func (s *Service) issue(username string) (*LoginResult, error) {
	pair, err := s.jwt.GenerateToken(username, RoleStaff)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Username: username, Role: RoleStaff, Tokens: pair}, nil
}

// Logout 登出
// Access Token加入黑名单直到其自然过期
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims) error {
	if err := s.store.DeleteSession(ctx, claims.Username); err != nil {
		return apperrors.Wrap(err, "删除会话失败")
	}
	if err := s.store.Revoke(ctx, claims.TokenID(), claims.Remaining(s.now())); err != nil {
		return apperrors.Wrap(err, "Token加入黑名单失败")
	}
	s.log.InfoContext(ctx, "馆员登出", "username", claims.Username)
	return nil
}

// Refresh 使用Refresh Token换取新的Access Token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil {
		return "", err
	}
	revoked, err := s.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return "", err
	}
	if revoked {
		return "", apperrors.ErrInvalidToken
	}
	return s.jwt.RefreshAccessToken(refreshToken)
}

// IsRevoked Token是否已被吊销
func (s *Service) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	revoked, err := s.store.IsRevoked(ctx, tokenID)
	if err != nil {
		return false, apperrors.Wrap(err, "验证Token失败")
	}
	return revoked, nil
}

// HashPassword 生成bcrypt哈希,用于填写auth.admin_password_hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", apperrors.ErrInvalidParams.WithReason("密码不能为空")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(err, "生成密码哈希失败")
	}
	return string(hash), nil
}
