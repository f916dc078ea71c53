package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New creates a validator with the custom rules used by the request DTOs.
func New() *validator.Validate {
	v := validator.New()

	// Field errors carry JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Rejects whitespace-only strings.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return strings.TrimSpace(str) != ""
	})

	// Money fields are validated by their numeric value (gt=0, gte=0).
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// Message renders the first validation failure of err as a client-facing message.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("invalid request: %s is required", field)
	case "gt":
		return fmt.Sprintf("invalid request: %s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("invalid request: %s must be at least %s", field, fe.Param())
	case "lt", "lte", "max":
		return fmt.Sprintf("invalid request: %s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid request: %s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("invalid request: %s is invalid", field)
	}
}
