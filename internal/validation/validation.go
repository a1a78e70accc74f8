package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// IsMobileNumber reports whether value is exactly ten ASCII digits.
// The value is not trimmed first.
func IsMobileNumber(value string) bool {
	return mobilePattern.MatchString(value)
}

// FieldError represents a validation failure for one input field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// New returns a validator that reports json field names and understands the
// "mobile" tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return IsMobileNumber(fl.Field().String())
	})
	return v
}

// FirstError converts the first failure reported by the validator into a
// FieldError. ok is false when err did not come from struct validation.
func FirstError(err error) (FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return FieldError{}, false
	}
	fe := verrs[0]
	return FieldError{Field: fe.Field(), Message: describe(fe)}, true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "mobile":
		return "must be a 10-digit mobile number"
	default:
		return "is invalid"
	}
}
