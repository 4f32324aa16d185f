package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
)

var (
	slugRe     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	registerOnce sync.Once
	registerErr  error
)

// Register installs the custom tags on gin's validator. Safe to call more
// than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not validator/v10")
			return
		}
		registerErr = Install(v)
	})
	return registerErr
}

// Install adds slug, hexcolor6 and price to v and reports field names by
// their json tag.
func Install(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("slug", validateSlug); err != nil {
		return err
	}
	if err := v.RegisterValidation("hexcolor6", validateHexColor); err != nil {
		return err
	}
	return v.RegisterValidation("price", validatePrice)
}

func validateSlug(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || slugRe.MatchString(s)
}

func validateHexColor(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || hexColorRe.MatchString(s)
}

// price accepts non-negative cent amounts.
func validatePrice(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// BindError turns a gin binding failure into a 400 the handlers can return
// as is.
func BindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apierr.BadRequest("validation_error", describe(ve[0]))
	}
	return apierr.BadRequest("invalid_request", "Invalid request body")
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "slug":
		return fmt.Sprintf("%s must contain only lowercase letters, numbers and hyphens", field)
	case "hexcolor6":
		return fmt.Sprintf("%s must be a hex color like #E8A0BF", field)
	case "price":
		return fmt.Sprintf("%s must be a non-negative amount in cents", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
