package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// SessionStore 馆员会话与Token黑名单
// Key设计：library:session:{username}、library:blacklist:{token_id}
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(username string) string {
	return fmt.Sprintf("library:session:%s", username)
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("library:blacklist:%s", tokenID)
}

// SaveSession 保存登录会话(登录时间、来源IP等),过期时间与Refresh Token一致
func (s *SessionStore) SaveSession(ctx context.Context, username string, data map[string]any, ttl time.Duration) error {
	key := sessionKey(username)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "保存会话失败")
	}
	return nil
}

// GetSession 获取登录会话
func (s *SessionStore) GetSession(ctx context.Context, username string) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(username)).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "获取会话失败")
	}
	if len(result) == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	return result, nil
}

// DeleteSession 删除会话(登出)
func (s *SessionStore) DeleteSession(ctx context.Context, username string) error {
	if err := s.client.Del(ctx, sessionKey(username)).Err(); err != nil {
		return apperrors.Wrap(err, "删除会话失败")
	}
	return nil
}

// Revoke 将Token加入黑名单,ttl为Token剩余有效期
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // 已过期的Token无需拉黑
	}
	if err := s.client.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err(); err != nil {
		return apperrors.Wrap(err, "添加Token到黑名单失败")
	}
	return nil
}

// IsRevoked 检查Token是否在黑名单中
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := s.client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "检查黑名单失败")
	}
	return exists > 0, nil
}
