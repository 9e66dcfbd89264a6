package user

import (
	domain "users-svc/internal/domain/user"
)

func fromDBModel(model *User) *domain.User {
	return &domain.User{
		ID:        model.ID,
		Name:      model.Name,
		Lastname:  model.Lastname,
		BirthDate: model.BirthDate,
		Username:  model.Username,
		Email:     model.Email,
		Provider:  domain.Provider(model.Provider),
		Active:    model.Active,

		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func fromDBModels(models Users) domain.Users {
	us := make(domain.Users, len(models))
	for idx, u := range models {
		us[idx] = fromDBModel(u)
	}

	return us
}
