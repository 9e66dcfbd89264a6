package validator

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var initOnce sync.Once

// Init makes gin's validator report json field names instead of Go ones.
func Init() {
	initOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

// ToDetails turns a binding error into a field -> message map.
func ToDetails(err error) map[string]string {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = message(fe)
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()}
	}

	return map[string]string{"body": "malformed JSON"}
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "datetime":
		return "must be YYYY-MM-DD"
	case "required":
		return "is required"
	default:
		return "failed on " + fe.Tag()
	}
}
