// Package validate applies struct defaults and validator tags to CLI and HTTP requests.
package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ai-hedge-fund/pkg/common"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, shaped for JSON responses.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects every failed rule of a request. It unwraps to common.ErrInvalidInput.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error {
	return common.ErrInvalidInput
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	// Report json names so messages match what the caller sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct sets defaults on req (a pointer) and validates it.
func (v *Validator) Struct(ctx context.Context, req interface{}) error {
	if err := defaults.Set(req); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := v.validate.StructCtx(ctx, req); err != nil {
		return toError(err)
	}
	return nil
}

// Var validates a single value against tag, e.g. "oneof=weekly monthly".
func (v *Validator) Var(ctx context.Context, name string, value interface{}, tag string) error {
	if err := v.validate.VarCtx(ctx, value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{
					Code:    "ERR_" + strings.ToUpper(fe.Tag()),
					Field:   name,
					Message: message(name, fe),
				})
			}
			return &Error{Fields: fields}
		}
		return fmt.Errorf("%s: %v: %w", name, err, common.ErrInvalidInput)
	}
	return nil
}

func toError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%v: %w", err, common.ErrInvalidInput)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Namespace(),
			Message: message(fe.Field(), fe),
		})
	}
	return &Error{Fields: fields}
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
