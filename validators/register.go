package validators

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"bitwise74/readstack/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var (
	phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	registerOnce sync.Once
	errRegister  error
)

// Register installs the custom binding rules on gin's validator. Safe to
// call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			errRegister = errors.New("binding engine is not a go-playground validator")
			return
		}

		errRegister = registerOn(v)
	})

	return errRegister
}

func registerOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}

			if name != "" {
				return name
			}
		}

		return f.Name
	})

	rules := map[string]validator.Func{
		"category": func(fl validator.FieldLevel) bool {
			return model.IsCategory(fl.Field().String())
		},
		"phone": func(fl validator.FieldLevel) bool {
			return phoneRe.MatchString(fl.Field().String())
		},
		"password": func(fl validator.FieldLevel) bool {
			return PasswordValidator(fl.Field().String()) == nil
		},
		"richtext": func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.Slice {
				return false
			}

			return RichTextValidator(fl.Field().Bytes()) == nil
		},
		"dob": func(fl validator.FieldLevel) bool {
			t, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil && t.Before(time.Now().UTC())
		},
		"pref": func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			return s != "" && !strings.Contains(s, ",")
		},
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return nil
}
