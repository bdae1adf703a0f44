package repository

import (
	"context"

	"novai-server/internal/domain/model"
)

// SessionRepository maps opaque tokens to authenticated identities.
// Implementations bound the session lifetime (TTL) themselves; an expired
// token behaves exactly like an unknown one.
type SessionRepository interface {
	// Create stores the identity and returns a fresh opaque token.
	Create(ctx context.Context, identity model.Identity) (string, error)
	// Get returns domain.ErrNoSession for unknown or expired tokens.
	Get(ctx context.Context, token string) (*model.Identity, error)
	// Destroy invalidates the token. Destroying an unknown token is a no-op.
	Destroy(ctx context.Context, token string) error
}
