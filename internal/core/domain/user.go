package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidUsername    = errors.New("username must be at least 3 characters")
)

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	DisplayName  string
	IsCreator    bool // rôle choisi au signup (page /role)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser crée une instance valide (ID généré ici, pas en DB).
func NewUser(email, username, passwordHash, displayName string) (*User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(strings.TrimSpace(username)) < 3 {
		return nil, ErrInvalidUsername
	}

	return &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// BecomeCreator active le profil créateur.
func (u *User) BecomeCreator() {
	u.IsCreator = true
	u.UpdatedAt = time.Now().UTC()
}
