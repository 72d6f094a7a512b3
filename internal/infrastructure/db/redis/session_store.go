package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

const defaultSessionTTL = 72 * time.Hour

// SessionStore is a credential store scoped to one browser session.
// Key format: sess:<sid>:token and sess:<sid>:user — the token and the
// serialized user are kept under separate keys, refreshed together on
// every save and deleted together on clear.
type SessionStore struct {
	client *redis.Client
	sid    string
	ttl    time.Duration
}

var _ ports.CredentialStore = (*SessionStore)(nil)

// NewSessionStore scopes a store to the browser session sid. A
// non-positive ttl falls back to defaultSessionTTL.
func NewSessionStore(client *redis.Client, sid string, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, sid: sid, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context) (string, *domain.User, error) {
	vals, err := s.client.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return "", nil, fmt.Errorf("load session %s: %w", s.sid, err)
	}

	token, _ := vals[0].(string)
	rawUser, _ := vals[1].(string)

	var user *domain.User
	if rawUser != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(rawUser), &u); err == nil {
			user = &u
		}
		// A corrupt user record reads as absent.
	}
	return token, user, nil
}

func (s *SessionStore) Save(ctx context.Context, token string, user *domain.User) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(), token, s.ttl)
	pipe.Set(ctx, s.userKey(), string(rawUser), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", s.sid, err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey(), s.userKey()).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", s.sid, err)
	}
	return nil
}

func (s *SessionStore) tokenKey() string { return fmt.Sprintf("sess:%s:token", s.sid) }
func (s *SessionStore) userKey() string  { return fmt.Sprintf("sess:%s:user", s.sid) }
