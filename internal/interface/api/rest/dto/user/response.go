package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		Lastname  string    `json:"lastname"`
		BirthDate *string   `json:"birthDate"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Provider  string    `json:"provider"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	Users          []User
	SearchResponse struct {
		Users Users `json:"users"`
		Total int   `json:"total"`
	}
	ExistsResponse struct {
		Exists bool `json:"exists"`
	}
)
