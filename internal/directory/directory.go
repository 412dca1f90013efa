// Package directory owns user records: registration, credential checks,
// contact lookup and the mutual friend sets. The session and friends layers
// only ever hold user ids; everything else about a user lives here.
package directory

import (
	"context"
	"errors"

	"nexconnect-server/internal/model"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoContact          = errors.New("no lookup field provided")
)

// ContactQuery looks a user up by exactly one discriminant. When several
// fields are set, precedence is email, then phone, then display name; the
// highest-precedence non-empty field is matched alone, never OR-combined.
type ContactQuery struct {
	Email       string
	PhoneNumber string
	DisplayName string
}

type Directory interface {
	Register(ctx context.Context, displayName, email, phone, password string) (model.User, error)
	Authenticate(ctx context.Context, email, password string) (model.User, error)
	FindUserByID(ctx context.Context, id string) (model.User, error)
	FindUserByContact(ctx context.Context, q ContactQuery) (model.User, error)
	MarkVerified(ctx context.Context, email string) error
	AddFriend(ctx context.Context, userID, friendID string) error
	AreFriends(ctx context.Context, userID, friendID string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]string, error)
}
