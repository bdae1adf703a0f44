package model

import (
	"novai-server/internal/domain"
)

// User is a registered account. PasswordHash is a bcrypt digest; the
// plaintext never leaves the handler that received it. The JSON tags match
// the on-disk record layout (the hash is stored under "password").
type User struct {
	Nickname     string `json:"nickname"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"password"`
}

func NewUser(nickname, username, passwordHash string) (*User, error) {
	if username == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		Nickname:     nickname,
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}
