package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"users-svc/internal/domain/user"
	"users-svc/internal/infrastructure/db/postgres"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DB
}

func NewRepository(db DB) user.Repository {
	return &Repository{db: db}
}

// Save inserts when u.ID is nil and updates the row in place otherwise.
func (r *Repository) Save(ctx context.Context, u user.User, passwordHash *string) (*user.User, error) {
	var row pgx.Row
	if u.ID == uuid.Nil {
		row = r.db.QueryRow(ctx, InsertUser,
			u.Name, u.Lastname, u.BirthDate, u.Username, u.Email, passwordHash,
			string(u.Provider), u.Active, u.CreatedAt, u.UpdatedAt,
		)
	} else {
		row = r.db.QueryRow(ctx, UpdateUserByID,
			u.Name, u.Lastname, u.BirthDate, u.Username, u.Email, passwordHash,
			u.UpdatedAt, u.ID,
		)
	}

	return scanSaved(row)
}

func (r *Repository) Deactivate(ctx context.Context, id user.UUID, at time.Time) (*user.User, error) {
	return scanSaved(r.db.QueryRow(ctx, DeactivateUserByID, at, id))
}

func scanSaved(row pgx.Row) (*user.User, error) {
	m := new(User)
	if err := row.Scan(m.scanTargets()...); err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, conflictFor(err)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.NotFound(user.MsgUserNotFound)
		}
		return nil, err
	}

	return fromDBModel(m), nil
}

func conflictFor(err error) error {
	switch postgres.ViolatedConstraint(err) {
	case postgres.UsersUsernameKey:
		return user.Conflict(user.MsgUsernameInUse)
	default:
		return user.Conflict(user.MsgEmailInUse)
	}
}

func (r *Repository) FindByID(ctx context.Context, id user.UUID) (*user.User, error) {
	return r.findOne(ctx, SelectUserByID, id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, SelectUserByEmail, email)
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, SelectUserByUsername, username)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*user.User, error) {
	m := new(User)
	if err := r.db.QueryRow(ctx, query, arg).Scan(m.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(m), nil
}

func (r *Repository) FindAll(ctx context.Context) (user.Users, error) {
	rows, err := r.db.Query(ctx, SelectUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	us := Users{}
	for rows.Next() {
		m := new(User)
		if err = rows.Scan(m.scanTargets()...); err != nil {
			return nil, err
		}
		us = append(us, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(us), nil
}

func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, ExistsByEmail, email)
}

func (r *Repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, ExistsByUsername, username)
}

func (r *Repository) exists(ctx context.Context, query, arg string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *Repository) Delete(ctx context.Context, id user.UUID) error {
	tag, err := r.db.Exec(ctx, DeleteUserByID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.NotFound(user.MsgUserNotFound)
	}
	return nil
}
