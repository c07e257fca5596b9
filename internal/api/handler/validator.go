package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// requestValidator plugs go-playground/validator into Echo. Failures come back
// wrapped in domain.ErrValidation, listing the offending JSON fields.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator ready to be assigned to echo.Echo.Validator.
func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &requestValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, ", "))
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func describe(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return fe.Field() + " missing"
	}
	return fe.Field() + " failed " + fe.Tag()
}
