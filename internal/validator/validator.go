package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var slugRgx = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("slug", validateSlug)

	return validator
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "slug":
		return "must contain only lowercase letters, numbers and hyphens"
	default:
		return "is invalid"
	}
}
