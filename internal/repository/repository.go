package repository

import (
	"context"

	"github.com/MumuCarrot/bestpractices-bc/internal/domain"
)

// UserRepository defines the user store consumed by the auth service. The
// backing store owns login uniqueness: a duplicate create must fail with
// ErrAlreadyExists.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// FindByID retrieves a user by their unique identifier.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByLogin retrieves a user by their login.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
