package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"pizzeria-be/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern    = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	zipPattern      = regexp.MustCompile(`^\d{5}-?\d{3}$`)
)

// NewValidator returns a validator that reports json field names and knows
// the password_strength, phone_br, zip_br and username_chars rules.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("phone_br", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("zip_br", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

func strongPassword(p string) bool {
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// normalizeZip turns "01000000" or "01000-000" into "01000-000".
func normalizeZip(zip string) string {
	digits := strings.ReplaceAll(zip, "-", "")
	if len(digits) != 8 {
		return zip
	}
	return digits[:5] + "-" + digits[5:]
}

var errInvalidBody = apperr.Validation("invalid request body")

// validationError converts validator output into a Validation error that
// lists every failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errInvalidBody.Wrap(err)
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return apperr.Validation("validation failed").WithDetails(details...)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max", "len":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	case "email":
		return field + " must be a valid email"
	case "eqfield":
		return field + " must match " + strings.ToLower(fe.Param())
	case "password_strength":
		return field + " must contain upper and lower case letters, a digit and a special character"
	case "phone_br":
		return field + " must look like (11) 98765-4321"
	case "zip_br":
		return field + " must have 8 digits"
	case "username_chars":
		return field + " may only contain letters, digits and underscores"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}
