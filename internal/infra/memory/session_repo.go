package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.SessionRepository = (*SessionRepo)(nil)

type sessionEntry struct {
	identity  model.Identity
	expiresAt time.Time
}

// SessionRepo is the in-process session store used when Redis is not
// configured. Expired tokens are rejected on read and removed by the
// janitor sweep.
type SessionRepo struct {
	mu   sync.Mutex
	ttl  time.Duration
	byID map[string]sessionEntry
	now  func() time.Time
}

func NewSessionRepo(ttl time.Duration) *SessionRepo {
	return &SessionRepo{
		ttl:  ttl,
		byID: make(map[string]sessionEntry),
		now:  time.Now,
	}
}

func (r *SessionRepo) Create(ctx context.Context, identity model.Identity) (string, error) {
	token := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[token] = sessionEntry{identity: identity, expiresAt: r.now().Add(r.ttl)}
	return token, nil
}

func (r *SessionRepo) Get(ctx context.Context, token string) (*model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[token]
	if !ok {
		return nil, domain.ErrNoSession
	}
	if r.now().After(e.expiresAt) {
		delete(r.byID, token)
		return nil, domain.ErrNoSession
	}
	id := e.identity
	return &id, nil
}

func (r *SessionRepo) Destroy(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, token)
	return nil
}

// sweep removes expired entries and reports how many were dropped.
func (r *SessionRepo) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for token, e := range r.byID {
		if now.After(e.expiresAt) {
			delete(r.byID, token)
			n++
		}
	}
	return n
}

// RunJanitor sweeps expired sessions on the given interval until ctx is
// cancelled.
func (r *SessionRepo) RunJanitor(ctx context.Context, interval time.Duration, logger *zerolog.Logger) error {
	janLog := logger.With().Str("component", "SessionJanitor").Logger()
	janLog.Info().Msg("Starting session janitor")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			janLog.Info().Msg("Stopping session janitor")
			return ctx.Err()
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				janLog.Debug().Int("count", n).Msg("expired sessions removed")
			}
		}
	}
}
