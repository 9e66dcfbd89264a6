package hasher

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"users-svc/internal/domain/user"
)

type Bcrypt struct {
	cost int
}

// New falls back to bcrypt.DefaultCost when cost is out of range.
func New(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", user.Validation("password", "password is too long")
		}
		return "", err
	}
	return string(h), nil
}
