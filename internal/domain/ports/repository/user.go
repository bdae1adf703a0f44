package repository

import (
	"context"

	"novai-server/internal/domain/model"
)

// UserRepository persists account records keyed by username.
type UserRepository interface {
	// Save inserts a new user. Returns domain.ErrAlreadyExists when the
	// username is taken (case-sensitive match).
	Save(ctx context.Context, user *model.User) error
	// FindByUsername returns domain.ErrNotFound on a miss.
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdatePassword replaces the stored hash for an existing user.
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
