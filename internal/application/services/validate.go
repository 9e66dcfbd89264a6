package services

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	domain "users-svc/internal/domain/user"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// normalize lowercases email and username. A Caser is stateful, so one is
// built per call.
func normalize(s string) string { return cases.Lower(language.Und).String(s) }

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func required(field, value string) error {
	if isBlank(value) {
		return domain.Validation(field, field+" is required")
	}
	return nil
}

func validEmail(email string) error {
	if !emailRe.MatchString(email) {
		return domain.Validation("email", "email is invalid")
	}
	return nil
}

// firstError returns the first failing check, in order.
func firstError(checks ...func() error) error {
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func requiredCheck(field, value string) func() error {
	return func() error { return required(field, value) }
}

func validateLocal(in domain.Registration) error {
	return firstError(
		func() error {
			if !domain.ProviderLocal.Is(in.Provider) {
				return domain.Validation("provider", "provider must be LOCAL")
			}
			return nil
		},
		requiredCheck("name", in.Name),
		requiredCheck("lastname", in.Lastname),
		requiredCheck("username", in.Username),
		requiredCheck("email", in.Email),
		requiredCheck("password", in.Password),
		func() error { return validEmail(in.Email) },
		func() error {
			if len(in.Password) > maxPasswordBytes {
				return domain.Validation("password", "password is too long")
			}
			return nil
		},
	)
}

func validateGoogle(in domain.Registration) error {
	return firstError(
		func() error {
			if !domain.ProviderGoogle.Is(in.Provider) {
				return domain.Validation("provider", "provider must be GOOGLE")
			}
			return nil
		},
		requiredCheck("username", in.Username),
		requiredCheck("email", in.Email),
		func() error { return validEmail(in.Email) },
	)
}

// validatePatch checks only the fields that are present.
func validatePatch(p domain.Patch) error {
	present := func(field string, o domain.Optional[string]) func() error {
		return func() error {
			if v, ok := o.Get(); ok {
				return required(field, v)
			}
			return nil
		}
	}
	return firstError(
		present("name", p.Name),
		present("lastname", p.Lastname),
		present("username", p.Username),
		present("email", p.Email),
		func() error {
			if v, ok := p.Email.Get(); ok {
				return validEmail(v)
			}
			return nil
		},
	)
}

// storeError passes kinded errors through and turns the rest into ErrInternal.
func storeError(logger *zap.Logger, op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	logger.Error("identity store failure", zap.String("op", op), zap.Error(err))
	return domain.Internal("failed to "+op, err)
}
