package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Tag names for the custom rules
const (
	TagNotBlank = "notblank"
	TagFuture   = "future"
)

// FieldError describes one rejected field in an API response
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Register adds the custom rules to v. now is used by the future rule.
func Register(v *validator.Validate, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}

	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation(TagNotBlank, notBlank); err != nil {
		return fmt.Errorf("register %s: %w", TagNotBlank, err)
	}
	if err := v.RegisterValidation(TagFuture, future(now)); err != nil {
		return fmt.Errorf("register %s: %w", TagFuture, err)
	}
	return nil
}

// RegisterWithGin installs the custom rules on gin's default binding validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v, time.Now)
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

func future(now func() time.Time) validator.Func {
	return func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return t.UTC().After(now().UTC())
	}
}

func jsonFieldName(f reflect.StructField) string {
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
}

// Details converts a binding error into per-field details.
// Errors that are not validation errors yield a single entry without a field.
func Details(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Rule: "format", Message: err.Error()}}
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return details
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case TagNotBlank:
		return fmt.Sprintf("%s cannot be empty or whitespace only", fe.Field())
	case TagFuture:
		return fmt.Sprintf("%s must be in the future", fe.Field())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}
