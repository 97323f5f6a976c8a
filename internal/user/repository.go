package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts user persistence. Both the in-memory and the
// Postgres implementations satisfy it; lookups return ErrNotFound for
// missing users.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error

	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByAgeRange(ctx context.Context, minAge, maxAge int) ([]User, error)
	Count(ctx context.Context) (int, error)
}
