package user

import (
	"context"
	"time"
)

// Repository is the identity store. Find* return (nil, nil) when nothing matches.
// Save inserts when u.ID is uuid.Nil and updates otherwise; passwordHash is
// written only when non-nil. An update rewrites the personal fields only,
// provider and active are fixed at insert and Deactivate is the one write
// that touches active. A uniqueness violation comes back as ErrConflict.
type Repository interface {
	Save(ctx context.Context, u User, passwordHash *string) (*User, error)
	Deactivate(ctx context.Context, id UUID, at time.Time) (*User, error)
	FindByID(ctx context.Context, id UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context) (Users, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Delete(ctx context.Context, id UUID) error
}
