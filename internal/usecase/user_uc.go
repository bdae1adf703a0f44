package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
	"novai-server/internal/infra/logging"
	"novai-server/internal/infra/security"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes account operations used by the HTTP layer.
type UserUseCase interface {
	// Register creates an account. domain.ErrAlreadyExists when the
	// username is taken, regardless of nickname or email.
	Register(ctx context.Context, nickname, username, password string) (*model.User, error)
	// Verify checks credentials. domain.ErrInvalidCredentials covers both
	// the unknown-username and wrong-password cases so callers cannot
	// distinguish them.
	Verify(ctx context.Context, username, password string) (*model.User, error)
	// ChangePassword is credential-less but requires the matching
	// username+nickname pair; domain.ErrSamePassword when the proposed
	// password verifies against the stored hash.
	ChangePassword(ctx context.Context, username, nickname, newPassword string) error
}

type userUC struct {
	users  repository.UserRepository
	hasher *security.PasswordHasher
	log    *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, hasher *security.PasswordHasher, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, hasher: hasher, log: logger}
}

func (u *userUC) Register(ctx context.Context, nickname, username, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidArgument
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser(nickname, username, hash)
	if err != nil {
		return nil, err
	}
	if err := u.users.Save(ctx, user); err != nil {
		return nil, err
	}
	u.log.Info().Str("username", username).Msg("user registered")
	return user, nil
}

func (u *userUC) Verify(ctx context.Context, username, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Verify")()

	user, err := u.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.hasher.Verify(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (u *userUC) ChangePassword(ctx context.Context, username, nickname, newPassword string) error {
	defer logging.TraceDuration(u.log, "UserUC.ChangePassword")()

	if newPassword == "" {
		return domain.ErrInvalidArgument
	}
	user, err := u.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.Nickname != nickname {
		return domain.ErrNotFound
	}
	// One-way comparison; the stored hash is never reversed.
	if u.hasher.Verify(user.PasswordHash, newPassword) {
		return domain.ErrSamePassword
	}
	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := u.users.UpdatePassword(ctx, username, hash); err != nil {
		return err
	}
	u.log.Info().Str("username", username).Msg("password updated")
	return nil
}
