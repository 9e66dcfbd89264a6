package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
)

// Is compares providers case-insensitively, raw is usually caller input.
func (p Provider) Is(raw string) bool { return strings.EqualFold(string(p), raw) }

type (
	UUID = uuid.UUID
	// User never carries the credential, it is passed to the store separately.
	User struct {
		ID        UUID
		Name      string
		Lastname  string
		BirthDate *time.Time
		Username  string
		Email     string
		Provider  Provider
		Active    bool

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User
)

// Registration is the create payload shared by the local and google flows.
// Provider is raw caller input and is checked by the service.
type Registration struct {
	Name      string
	Lastname  string
	Username  string
	Email     string
	Password  string
	BirthDate *time.Time
	Provider  string
}
