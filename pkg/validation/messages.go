package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DefaultMessage renders a human-readable message for a failed binding tag.
func DefaultMessage(field, tag, param string) string {
	field = toSnakeCase(field)

	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters", field, param)
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match", toSnakeCase(param))
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s", field, param)
	default:
		return fmt.Sprintf("The %s field is invalid", field)
	}
}

// Messages converts a gin binding error into the envelope errors array.
// Non-validator errors (malformed JSON, type mismatches) collapse into a
// single generic message so internals never leak to clients.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"The request body is malformed"}
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, DefaultMessage(fe.Field(), fe.Tag(), fe.Param()))
	}
	return messages
}

func toSnakeCase(s string) string {
	var result []rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '_')
		}
		result = append(result, unicode.ToLower(r))
	}
	return strings.TrimSpace(string(result))
}
