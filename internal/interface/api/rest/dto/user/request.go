package user

type (
	CreateRequest struct {
		Name      string  `json:"name"`
		Lastname  string  `json:"lastname"`
		Username  string  `json:"username"`
		BirthDate *string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
		Email     string  `json:"email"`
		Provider  string  `json:"provider"`
		Password  string  `json:"password"`
	}
	// UpdateRequest: nil or missing fields are left unchanged.
	UpdateRequest struct {
		Name      *string `json:"name"`
		Lastname  *string `json:"lastname"`
		Username  *string `json:"username"`
		BirthDate *string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
		Email     *string `json:"email"`
	}
	EmailRequest struct {
		Email string `json:"email"`
	}
	UsernameRequest struct {
		Username string `json:"username"`
	}
)
