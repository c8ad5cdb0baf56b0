package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct returns a field -> message map, or nil when payload is valid.
func validateStruct(payload any) map[string]string {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "The request body is invalid."
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("The %s field is required.", field)
		case "email":
			out[field] = fmt.Sprintf("The %s must be a valid email address.", field)
		case "min":
			out[field] = fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		case "max":
			out[field] = fmt.Sprintf("The %s may not be longer than %s characters.", field, fe.Param())
		default:
			out[field] = fmt.Sprintf("The %s field is invalid.", field)
		}
	}
	return out
}
