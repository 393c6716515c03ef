package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionStore 进程内的会话与Token黑名单,未启用Redis时使用
// 重启后黑名单丢失
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	revoked  map[string]time.Time // token_id -> 过期时间
	now      func() time.Time
}

type session struct {
	data      map[string]string
	expiresAt time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session),
		revoked:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// SaveSession 保存会话
func (s *SessionStore) SaveSession(_ context.Context, username string, data map[string]any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]string, len(data))
	for k, v := range data {
		values[k] = stringify(v)
	}
	s.sessions[username] = session{data: values, expiresAt: s.now().Add(ttl)}
	return nil
}

// DeleteSession 删除会话
func (s *SessionStore) DeleteSession(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, username)
	return nil
}

// HasSession 会话是否存在且未过期
func (s *SessionStore) HasSession(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[username]
	return ok && s.now().Before(sess.expiresAt)
}

// Revoke 拉黑Token,同时清理已过期条目
func (s *SessionStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked 检查Token是否在黑名单中
func (s *SessionStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[tokenID]
	return ok && s.now().Before(exp), nil
}

func stringify(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
