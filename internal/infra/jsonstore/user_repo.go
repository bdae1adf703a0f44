package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
	"novai-server/internal/infra/metrics"
)

// Compile-time check
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo persists accounts as a single JSON array of user records,
// rewritten wholesale on every mutation. The mutex serializes the
// read-mutate-rewrite cycle within this process; cross-process writers are
// out of scope.
type UserRepo struct {
	path string
	mu   sync.Mutex
}

// NewUserRepo creates the backing file with an empty list when absent.
func NewUserRepo(path string) (*UserRepo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
			return nil, fmt.Errorf("init users file: %w", err)
		}
	}
	return &UserRepo{path: path}, nil
}

func (r *UserRepo) Save(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.readAll()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return domain.ErrAlreadyExists
		}
	}
	users = append(users, *user)
	return r.writeAll(users)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			u := users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.readAll()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == username {
			users[i].PasswordHash = passwordHash
			return r.writeAll(users)
		}
	}
	return domain.ErrNotFound
}

func (r *UserRepo) readAll() ([]model.User, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var users []model.User
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return users, nil
}

func (r *UserRepo) writeAll(users []model.User) error {
	b, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := os.WriteFile(r.path, b, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	metrics.IncStoreWrite("users")
	return nil
}
