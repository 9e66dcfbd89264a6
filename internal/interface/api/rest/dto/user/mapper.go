package user

import (
	"errors"
	"time"

	"users-svc/internal/domain/user"
)

const DateLayout = "2006-01-02"

var ErrInvalidBirthDate = errors.New("invalid birthDate format, want YYYY-MM-DD")

func ToResponseUser(uDomain user.User) User {
	var u = User{
		ID:        uDomain.ID,
		Name:      uDomain.Name,
		Lastname:  uDomain.Lastname,
		Username:  uDomain.Username,
		Email:     uDomain.Email,
		Provider:  string(uDomain.Provider),
		Active:    uDomain.Active,
		CreatedAt: uDomain.CreatedAt,
		UpdatedAt: uDomain.UpdatedAt,
	}
	if uDomain.BirthDate != nil {
		d := uDomain.BirthDate.Format(DateLayout)
		u.BirthDate = &d
	}

	return u
}

func ToResponseUsers(usDomain user.Users) Users {
	us := make(Users, len(usDomain))
	for idx, u := range usDomain {
		us[idx] = ToResponseUser(*u)
	}

	return us
}

func ToRegistration(req CreateRequest) (user.Registration, error) {
	d, err := parseDate(req.BirthDate)
	if err != nil {
		return user.Registration{}, err
	}

	return user.Registration{
		Name:      req.Name,
		Lastname:  req.Lastname,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		BirthDate: d,
		Provider:  req.Provider,
	}, nil
}

func ToPatch(req UpdateRequest) (user.Patch, error) {
	p := user.Patch{
		Name:     user.FromPtr(req.Name),
		Lastname: user.FromPtr(req.Lastname),
		Username: user.FromPtr(req.Username),
		Email:    user.FromPtr(req.Email),
	}
	d, err := parseDate(req.BirthDate)
	if err != nil {
		return user.Patch{}, err
	}
	p.BirthDate = user.FromPtr(d)

	return p, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil, ErrInvalidBirthDate
	}
	return &d, nil
}
