package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo maps opaque session tokens to identities in Redis. The TTL on
// each key bounds the session lifetime; expiry needs no sweeping here.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionRepo(client RedisClient, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (s *SessionRepo) Create(ctx context.Context, identity model.Identity) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (s *SessionRepo) Get(ctx context.Context, token string) (*model.Identity, error) {
	data, err := s.client.Get(ctx, sessionKey(token))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNoSession
		}
		return nil, err
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *SessionRepo) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)); err != nil && !IsNil(err) {
		return err
	}
	return nil
}
