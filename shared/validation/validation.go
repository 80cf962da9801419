// Package validation wraps a single go-playground validator instance with the
// custom tags used by account commands and HTTP requests:
//
//	login   - non-empty, latin letters, digits and underscore only
//	gender  - one of the models.Gender values
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/useradmin/userapi/shared/errs"
	"github.com/useradmin/userapi/shared/models"
)

var loginPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		return IsLogin(fl.Field().String())
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return models.Gender(fl.Field().Int()).Valid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// IsLogin reports whether s is usable as a login or password under the
// latin-letters, digits and underscore rule.
func IsLogin(s string) bool {
	return loginPattern.MatchString(s)
}

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Struct validates obj and returns one FieldError per failed constraint, or
// nil when obj is valid.
func Struct(obj any) []FieldError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error(), Type: "invalid"}}
	}

	fieldErrors := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Type:    fe.Tag(),
		})
	}
	return fieldErrors
}

// Check validates obj and folds any failures into a single error wrapping
// errs.ErrValidation.
func Check(obj any) error {
	fieldErrors := Struct(obj)
	if fieldErrors == nil {
		return nil
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Errorf("%w: %s", errs.ErrValidation, strings.Join(parts, "; "))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "login":
		return "Only latin letters, numbers and _ are allowed"
	case "gender":
		return "Gender must be 0, 1 or 2"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	default:
		return "Invalid value"
	}
}
