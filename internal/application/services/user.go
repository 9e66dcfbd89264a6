package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"users-svc/internal/application/ports"
	domain "users-svc/internal/domain/user"
	"users-svc/internal/infrastructure/mq"
	"users-svc/internal/interface/api/rest/dto/user"
)

// emailOwner is the outcome of looking up an email before a google upsert.
type emailOwner int

const (
	emailUnclaimed emailOwner = iota
	emailOwnedByGoogle
	emailOwnedByOtherProvider
)

func ownerOf(existing *domain.User) emailOwner {
	switch {
	case existing == nil:
		return emailUnclaimed
	case domain.ProviderGoogle.Is(string(existing.Provider)):
		return emailOwnedByGoogle
	default:
		return emailOwnedByOtherProvider
	}
}

type UserService struct {
	userRepository domain.Repository
	hasher         ports.PasswordHasher
	events         ports.EventPublisher
	mCounter       *prometheus.CounterVec
	logger         *zap.Logger
	now            func() time.Time
}

func NewUserService(
	userRepository domain.Repository,
	hasher ports.PasswordHasher,
	events ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
) ports.UserService {
	return &UserService{
		userRepository: userRepository,
		hasher:         hasher,
		events:         events,
		mCounter:       mCounter,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (us *UserService) RegisterLocal(ctx context.Context, in domain.Registration) (*domain.User, error) {
	if err := validateLocal(in); err != nil {
		return nil, err
	}

	email, username := normalize(in.Email), normalize(in.Username)
	if err := us.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	if err := us.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}

	hash, err := us.hasher.Hash(in.Password)
	if err != nil {
		us.logger.Error("password hashing failed", zap.Error(err))
		return nil, domain.AsInternal("failed to hash password", err)
	}

	now := us.now()
	u := domain.User{
		Name:      in.Name,
		Lastname:  in.Lastname,
		BirthDate: in.BirthDate,
		Username:  username,
		Email:     email,
		Provider:  domain.ProviderLocal,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	saved, err := us.userRepository.Save(ctx, u, &hash)
	if err != nil {
		return nil, storeError(us.logger, "save user", err)
	}

	us.emit(mq.EventUserRegistered, "user_registered_total", saved)

	return saved, nil
}

func (us *UserService) UpsertGoogle(ctx context.Context, in domain.Registration) (*domain.User, error) {
	if err := validateGoogle(in); err != nil {
		return nil, err
	}

	email, username := normalize(in.Email), normalize(in.Username)
	existing, err := us.userRepository.FindByEmail(ctx, email)
	if err != nil {
		return nil, storeError(us.logger, "find user by email", err)
	}

	now := us.now()
	u := domain.User{
		Name:      in.Name,
		Lastname:  in.Lastname,
		BirthDate: in.BirthDate,
		Username:  username,
		Email:     email,
		Provider:  domain.ProviderGoogle,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch ownerOf(existing) {
	case emailOwnedByOtherProvider:
		return nil, domain.Conflict(domain.MsgEmailOtherProvider)
	case emailOwnedByGoogle:
		u.ID = existing.ID
		u.Active = existing.Active
		u.CreatedAt = existing.CreatedAt
		if username != normalize(existing.Username) {
			if err = us.ensureUsernameFree(ctx, username); err != nil {
				return nil, err
			}
		}
	case emailUnclaimed:
		if err = us.ensureUsernameFree(ctx, username); err != nil {
			return nil, err
		}
	}

	saved, err := us.userRepository.Save(ctx, u, nil)
	if err != nil {
		return nil, storeError(us.logger, "save user", err)
	}

	us.emit(mq.EventUserGoogleUpsert, "user_google_upserted_total", saved)

	return saved, nil
}

func (us *UserService) UpdatePartial(ctx context.Context, id domain.UUID, patch domain.Patch) (*domain.User, error) {
	if id == uuid.Nil {
		return nil, domain.Validation("id", "id is required")
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	current, err := us.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	// provider and active are not written by an update
	updated := *current

	if v, ok := patch.Email.Get(); ok {
		email := normalize(v)
		if email != normalize(current.Email) {
			if err = us.ensureEmailFree(ctx, email); err != nil {
				return nil, err
			}
		}
		updated.Email = email
	}
	if v, ok := patch.Username.Get(); ok {
		username := normalize(v)
		if username != normalize(current.Username) {
			if err = us.ensureUsernameFree(ctx, username); err != nil {
				return nil, err
			}
		}
		updated.Username = username
	}
	updated.Name = patch.Name.OrElse(current.Name)
	updated.Lastname = patch.Lastname.OrElse(current.Lastname)
	if bd, ok := patch.BirthDate.Get(); ok {
		updated.BirthDate = &bd
	}
	updated.UpdatedAt = us.now()

	saved, err := us.userRepository.Save(ctx, updated, nil)
	if err != nil {
		return nil, storeError(us.logger, "save user", err)
	}

	us.emit(mq.EventUserUpdated, "user_updated_total", saved)

	return saved, nil
}

// Deactivate is idempotent, a second call only refreshes UpdatedAt.
func (us *UserService) Deactivate(ctx context.Context, id domain.UUID) error {
	if id == uuid.Nil {
		return domain.Validation("id", "id is required")
	}

	saved, err := us.userRepository.Deactivate(ctx, id, us.now())
	if err != nil {
		return storeError(us.logger, "deactivate user", err)
	}

	us.emit(mq.EventUserDeactivated, "user_deactivated_total", saved)

	return nil
}

func (us *UserService) findExisting(ctx context.Context, id domain.UUID) (*domain.User, error) {
	u, err := us.userRepository.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(us.logger, "find user by id", err)
	}
	if u == nil {
		return nil, domain.NotFound(domain.MsgUserNotFound)
	}
	return u, nil
}

// ensureEmailFree and ensureUsernameFree are a fast path only, the store's
// unique indexes have the final word.
func (us *UserService) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := us.userRepository.ExistsByEmail(ctx, email)
	if err != nil {
		return storeError(us.logger, "check email", err)
	}
	if exists {
		return domain.Conflict(domain.MsgEmailInUse)
	}
	return nil
}

func (us *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	exists, err := us.userRepository.ExistsByUsername(ctx, username)
	if err != nil {
		return storeError(us.logger, "check username", err)
	}
	if exists {
		return domain.Conflict(domain.MsgUsernameInUse)
	}
	return nil
}

// emit never blocks the request, a full queue drops the event.
func (us *UserService) emit(eventType, counter string, u *domain.User) {
	us.mCounter.WithLabelValues(counter).Inc()

	select {
	case us.events.GetInputChan() <- mq.NewEvent(eventType, user.ToResponseUser(*u)):
	default:
		us.logger.Warn("event queue full, event dropped",
			zap.String("event_type", eventType),
			zap.Stringer("user_id", u.ID),
		)
	}
}
