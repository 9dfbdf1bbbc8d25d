package user

import (
	"context"
	"fmt"
	"time"
)

// User is the local read-only replica of a platform user.
type User struct {
	id        int64
	name      string
	email     string
	updatedAt time.Time
}

// NewUser creates a user replica from upstream data.
func NewUser(id int64, name, email string) (*User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("user ID must be positive")
	}
	return &User{id: id, name: name, email: email, updatedAt: time.Now().UTC()}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(id int64, name, email string, updatedAt time.Time) *User {
	return &User{id: id, name: name, email: email, updatedAt: updatedAt}
}

func (u *User) ID() int64            { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// UserRepository defines lookups and replica maintenance for users.
type UserRepository interface {
	// FindByID returns the user or a UserNotFound error.
	FindByID(ctx context.Context, id int64) (*User, error)

	// Upsert inserts or replaces the replica.
	Upsert(ctx context.Context, user *User) error
}
