// Package validation validates request payloads with validator/v10 and
// reports problems per JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error describes invalid input. Fields maps JSON field names to messages;
// Message is used for problems that are not tied to a single field.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

// FieldError builds an Error for a single field.
func FieldError(field, message string) *Error {
	return &Error{Message: "validation failed", Fields: map[string]string{field: message}}
}

// Validator wraps go-playground/validator with field error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports JSON tag names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns *Error on invalid input.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against tag. It returns the raw validator
// error; callers attach their own field name.
func (v *Validator) Var(value any, tag string) error {
	return v.v.Var(value, tag)
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[fieldPath(e)] = friendlyMessage(e)
	}
	return &Error{Message: "validation failed", Fields: fields}
}

// fieldPath drops the top-level struct name, keeping nested paths like
// "tags[0].name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
