package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists the failed fields of a form or payload in
// declaration order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// First is the message shown inline on HTML forms.
func (e *ValidationError) First() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[0]
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator for echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return fieldLabel(f.Tag.Get("form"), f.Tag.Get("json"), f.Name)
	})
	return &echoValidator{v: v}
}

func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{Messages: make([]string, 0, len(ve))}
	for _, fe := range ve {
		out.Messages = append(out.Messages, fieldError(fe))
	}
	return out
}

func fieldError(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// fieldLabel picks the first usable struct tag name.
func fieldLabel(tags ...string) string {
	for _, t := range tags {
		name, _, _ := strings.Cut(t, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}
