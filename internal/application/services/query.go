package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"users-svc/internal/application/ports"
	domain "users-svc/internal/domain/user"
)

type UserQueryService struct {
	userRepository domain.Repository
	logger         *zap.Logger
}

func NewUserQueryService(userRepository domain.Repository, logger *zap.Logger) ports.UserQueryService {
	return &UserQueryService{
		userRepository: userRepository,
		logger:         logger,
	}
}

func (qs *UserQueryService) FindByID(ctx context.Context, id domain.UUID) (*domain.User, error) {
	if id == uuid.Nil {
		return nil, domain.Validation("id", "id is required")
	}

	u, err := qs.userRepository.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(qs.logger, "find user by id", err)
	}

	return u, nil
}

func (qs *UserQueryService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := required("email", email); err != nil {
		return nil, err
	}

	u, err := qs.userRepository.FindByEmail(ctx, normalize(email))
	if err != nil {
		return nil, storeError(qs.logger, "find user by email", err)
	}

	return u, nil
}

func (qs *UserQueryService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := required("username", username); err != nil {
		return nil, err
	}

	u, err := qs.userRepository.FindByUsername(ctx, normalize(username))
	if err != nil {
		return nil, storeError(qs.logger, "find user by username", err)
	}

	return u, nil
}

func (qs *UserQueryService) FindAll(ctx context.Context) (domain.Users, error) {
	users, err := qs.userRepository.FindAll(ctx)
	if err != nil {
		return nil, storeError(qs.logger, "find users", err)
	}

	return users, nil
}

func (qs *UserQueryService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := required("email", email); err != nil {
		return false, err
	}

	exists, err := qs.userRepository.ExistsByEmail(ctx, normalize(email))
	if err != nil {
		return false, storeError(qs.logger, "check email", err)
	}

	return exists, nil
}

func (qs *UserQueryService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := required("username", username); err != nil {
		return false, err
	}

	exists, err := qs.userRepository.ExistsByUsername(ctx, normalize(username))
	if err != nil {
		return false, storeError(qs.logger, "check username", err)
	}

	return exists, nil
}
