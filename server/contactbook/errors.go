package contactbook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Daskott/agenda/server/auth"
	"github.com/go-playground/validator"
)

var (
	ErrNotFound           = errors.New("contact not found")
	ErrConflict           = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field of a request which failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	messages := []string{}
	for _, field := range e.Fields {
		messages = append(messages, fmt.Sprintf("%v: %v", field.Field, field.Message))
	}
	return fmt.Sprintf("validation failed: %v", strings.Join(messages, "; "))
}

// Messages maps each failing field to its message
func (e *ValidationError) Messages() map[string]string {
	messages := map[string]string{}
	for _, field := range e.Fields {
		messages[field.Field] = field.Message
	}
	return messages
}

func newValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := []FieldError{}
	for _, fieldErr := range validationErrors {
		fields = append(fields, FieldError{Field: fieldErr.Field(), Message: fieldErrorMessage(fieldErr)})
	}

	return &ValidationError{Fields: fields}
}

func fieldErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %v", strings.Join(strings.Fields(fieldErr.Param()), ", "))
	case "max":
		return fmt.Sprintf("must be at most %v characters", fieldErr.Param())
	case "password":
		return fmt.Sprintf("must be between 1 and %v bytes long", auth.MAX_PASSWORD_BYTES)
	default:
		return fmt.Sprintf("failed on the '%v' rule", fieldErr.Tag())
	}
}
