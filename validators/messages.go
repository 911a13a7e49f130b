package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"bitwise74/readstack/internal/model"

	"github.com/go-playground/validator/v10"
)

// Message turns a binding error into something that can be shown to a user.
// Only the first failing field is reported.
func Message(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return FieldMessage(ve[0])
	}

	return "Invalid request body"
}

func FieldMessage(fe validator.FieldError) string {
	name := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "min", "max":
		word := "at least"
		if fe.Tag() == "max" {
			word = "at most"
		}

		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", name, word, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must contain %s %s items", name, word, fe.Param())
		default:
			return fmt.Sprintf("%s must be %s %s", name, word, fe.Param())
		}
	case "category":
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(model.Categories, ", "))
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", name)
	case "password":
		if err := PasswordValidator(fmt.Sprint(fe.Value())); err != nil {
			return capitalize(err.Error())
		}

		return fmt.Sprintf("%s is invalid", name)
	case "richtext":
		return fmt.Sprintf("%s can't be empty", name)
	case "dob":
		return fmt.Sprintf("%s must be a past date in YYYY-MM-DD format", name)
	case "pref":
		return fmt.Sprintf("%s entries can't be empty or contain commas", name)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
