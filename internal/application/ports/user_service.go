package ports

import (
	"context"

	"users-svc/internal/domain/user"
)

type UserService interface {
	RegisterLocal(ctx context.Context, in user.Registration) (*user.User, error)
	UpsertGoogle(ctx context.Context, in user.Registration) (*user.User, error)
	UpdatePartial(ctx context.Context, id user.UUID, patch user.Patch) (*user.User, error)
	Deactivate(ctx context.Context, id user.UUID) error
}

type UserQueryService interface {
	FindByID(ctx context.Context, id user.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
	FindAll(ctx context.Context) (user.Users, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
