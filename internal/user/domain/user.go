package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// User is the contact identity of a bidder or seller. Accounts are created and
// maintained by the signup flow; this service only reads them.
type User struct {
	ID       uuid.UUID
	Username string
	Email    string
}

// UserRepository resolves user ids to contact identities.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
}

// UserWriter stores users. Only seeding uses it.
type UserWriter interface {
	CreateUser(ctx context.Context, u *User) error
}
