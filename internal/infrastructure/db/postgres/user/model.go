package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	// User mirrors a users row. password_hash is write-only and never selected.
	User struct {
		ID        uuid.UUID
		Name      string
		Lastname  string
		BirthDate *time.Time
		Username  string
		Email     string
		Provider  string
		Active    bool

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User
)

func (u *User) scanTargets() []any {
	return []any{
		&u.ID,
		&u.Name,
		&u.Lastname,
		&u.BirthDate,
		&u.Username,
		&u.Email,
		&u.Provider,
		&u.Active,

		&u.CreatedAt,
		&u.UpdatedAt,
	}
}
